package offer

import (
	"encoding/hex"

	"github.com/greenfloor/offerkit/bls"
	"github.com/greenfloor/offerkit/clvm"
	"github.com/greenfloor/offerkit/protocol"
)

// Serialized programs embedded by the offer core. The settlement-payments
// program is revealed in every announcement spend; the standard transaction
// program is recognized when deriving signing requirements and seeds the
// compression dictionary.
const (
	settlementHex = "ff02ffff01ff02ff0affff04ff02ffff04ff03ff80808080ffff04ffff01ffff33" +
		"3effff02ffff03ff05ffff01ff04ffff04ff0cffff04ffff02ff1effff04ff02ffff04ff09ff80" +
		"808080ff808080ffff02ff16ffff04ff02ffff04ff19ffff04ffff02ff0affff04ff02ffff04ff" +
		"0dff80808080ff808080808080ff8080ff0180ffff02ffff03ff05ffff01ff04ffff04ff08ff09" +
		"80ffff02ff16ffff04ff02ffff04ff0dffff04ff0bff808080808080ffff010b80ff0180ff02ff" +
		"ff03ffff07ff0580ffff01ff0bffff0102ffff02ff1effff04ff02ffff04ff09ff80808080ffff" +
		"02ff1effff04ff02ffff04ff0dff8080808080ffff01ff0bffff0101ff058080ff0180ff018080"

	standardHex = "ff02ffff01ff02ffff03ff0bffff01ff02ffff03ffff09ff05ffff1dff0bffff1e" +
		"ffff0bff0bffff02ff06ffff04ff02ffff04ff17ff8080808080808080ffff01ff02ff17ff2f80" +
		"ffff01ff088080ff0180ffff01ff04ffff04ff04ffff04ff05ffff04ffff02ff06ffff04ff02ff" +
		"ff04ff17ff80808080ff80808080ffff02ff17ff2f808080ff0180ffff04ffff01ff32ff02ffff" +
		"03ffff07ff0580ffff01ff0bffff0102ffff02ff06ffff04ff02ffff04ff09ff80808080ffff02" +
		"ff06ffff04ff02ffff04ff0dff8080808080ffff01ff0bffff0101ff058080ff0180ff018080"
)

var (
	settlementProgram = mustProgram(settlementHex)
	standardProgram   = mustProgram(standardHex)

	// SettlementPuzzleHash is the puzzle hash of the bare settlement-payments
	// program, the native-asset announcement puzzle.
	SettlementPuzzleHash = mustTreeHash(settlementProgram)

	// standardModHash recognizes the uncurried standard transaction program.
	standardModHash = mustTreeHash(standardProgram)

	// catModHash recognizes the uncurried token outer layer. The layer's
	// source is not embedded; recognition only needs its tree hash.
	catModHash = mustHash32("37bef360ee858133b69d595a906dc45d01af50379dad515eb9518abb7c1d2a7a")
)

func mustProgram(s string) protocol.Program {
	buf, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	if _, err := clvm.SerializedLen(buf); err != nil {
		panic(err)
	}
	return protocol.Program(buf)
}

func mustTreeHash(p protocol.Program) protocol.Bytes32 {
	a := clvm.New()
	root, err := a.ParseAll([]byte(p))
	if err != nil {
		panic(err)
	}
	return protocol.Bytes32(a.TreeHash(root))
}

// Condition opcodes recognized when deriving spend requirements.
const (
	condAggSigUnsafe             = 49
	condAggSigMe                 = 50
	condAssertPuzzleAnnouncement = 63
)

// SettlementProgram returns the serialized settlement-payments program.
func SettlementProgram() protocol.Program {
	return append(protocol.Program(nil), settlementProgram...)
}

// StandardProgram returns the serialized standard transaction program,
// uncurried.
func StandardProgram() protocol.Program {
	return append(protocol.Program(nil), standardProgram...)
}

// StandardPuzzle curries the standard transaction program with a synthetic
// public key, producing the puzzle a standard coin locks to.
func StandardPuzzle(syntheticKey bls.PublicKey) protocol.Program {
	a := clvm.New()
	mod, err := a.ParseAll([]byte(standardProgram))
	if err != nil {
		panic(err)
	}
	curried := a.Curry(mod, a.NewAtom(syntheticKey[:]))
	return protocol.Program(a.Serialize(curried))
}
