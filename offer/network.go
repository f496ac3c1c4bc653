// Package offer implements decoding, validation and assembly of offers:
// spend bundles following the settlement-payments convention.
package offer

import "github.com/greenfloor/offerkit/protocol"

// Network carries the per-chain parameters the offer core depends on. The
// aggregate-signature data is appended to every coin-bound signing message.
type Network struct {
	Name       string
	AggSigData protocol.Bytes32
}

var (
	Mainnet = Network{
		Name:       "mainnet",
		AggSigData: mustHash32("ccd5bb71183532bff220ba46c268991a3ff07eb358e8255a65c30a2dce0e5fbb"),
	}
	Testnet = Network{
		Name:       "testnet",
		AggSigData: mustHash32("ae83525ba8d1dd3f09b277de18ca3e43fc0af20d20c4b3e92ef2a48bd291ccb2"),
	}
)

// NetworkByName resolves a network name, defaulting to mainnet for the
// empty string.
func NetworkByName(name string) (Network, bool) {
	switch name {
	case "", Mainnet.Name:
		return Mainnet, true
	case Testnet.Name:
		return Testnet, true
	}
	return Network{}, false
}

func mustHash32(s string) protocol.Bytes32 {
	h, err := protocol.Bytes32FromHex(s)
	if err != nil {
		panic(err)
	}
	return h
}
