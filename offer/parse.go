package offer

import (
	"crypto/sha256"
	"fmt"

	"github.com/greenfloor/offerkit/bls"
	"github.com/greenfloor/offerkit/clvm"
	offererrors "github.com/greenfloor/offerkit/errors"
	"github.com/greenfloor/offerkit/protocol"
)

// Announcement spends reference a phantom coin with an all-zero parent.
var zeroParent = protocol.Bytes32{}

// Offer is the reconstructed view of a spend bundle following the
// settlement convention: the spends offered by the maker plus the payments
// requested in exchange, per asset class.
type Offer struct {
	Bundle        protocol.SpendBundle
	Requested     RequestedPayments
	OfferedSpends []protocol.CoinSpend
	// Announcements holds the puzzle-announcement ids the settlement
	// program emits for each announced notarized payment, the ids a
	// fulfilling spend must assert.
	Announcements []protocol.Bytes32
}

// ParseOffer decodes an offer string and reconstructs the offer view.
func ParseOffer(offer string) (Offer, error) {
	bundle, err := DecodeOffer(offer)
	if err != nil {
		return Offer{}, err
	}
	return Parse(bundle)
}

// Parse reconstructs the offer view of a decoded bundle. It scans every
// coin spend for the settlement-payment pattern: spends of a phantom coin
// with a zero parent announce notarized payments for the asset class their
// puzzle encodes. Structural inconsistencies fail the whole parse.
func Parse(bundle protocol.SpendBundle) (Offer, error) {
	out := Offer{Bundle: bundle}
	seenXch := false
	seenCats := map[protocol.Bytes32]bool{}
	for i, cs := range bundle.CoinSpends {
		if cs.Coin.ParentCoinInfo != zeroParent {
			out.OfferedSpends = append(out.OfferedSpends, cs)
			continue
		}
		if cs.Coin.Amount != 0 {
			return Offer{}, offererrors.Structural.New(
				"announcement spend %d: phantom coin amount must be zero", i)
		}
		a := clvm.New()
		puzzle, err := a.ParseAll([]byte(cs.PuzzleReveal))
		if err != nil {
			return Offer{}, offererrors.Structural.Wrap(
				fmt.Errorf("announcement spend %d: puzzle reveal: %w", i, err))
		}
		assetID, isCat, err := announcementClass(a, puzzle)
		if err != nil {
			return Offer{}, offererrors.Structural.Wrap(
				fmt.Errorf("announcement spend %d: %w", i, err))
		}
		nps, ids, err := parseAnnouncedPayments(a, []byte(cs.Solution), cs.Coin.PuzzleHash)
		if err != nil {
			return Offer{}, offererrors.Structural.Wrap(
				fmt.Errorf("announcement spend %d: %w", i, err))
		}
		out.Announcements = append(out.Announcements, ids...)
		if isCat {
			if seenCats[assetID] {
				return Offer{}, offererrors.Structural.New(
					"conflicting announcements for asset %s", assetID)
			}
			seenCats[assetID] = true
			out.Requested.Cats = append(out.Requested.Cats, CatPayments{
				AssetID: assetID, Payments: nps,
			})
			continue
		}
		if seenXch {
			return Offer{}, offererrors.Structural.New(
				"conflicting announcements for the native asset")
		}
		seenXch = true
		out.Requested.Xch = nps
	}
	return out, nil
}

// announcementClass determines the asset class an announcement puzzle
// belongs to: the bare settlement program is the native asset, the token
// outer layer wrapping it is the token keyed by its asset id.
func announcementClass(a *clvm.Arena, puzzle clvm.NodeRef) (protocol.Bytes32, bool, error) {
	if protocol.Bytes32(a.TreeHash(puzzle)) == SettlementPuzzleHash {
		return protocol.Bytes32{}, false, nil
	}
	mod, args, ok := a.Uncurry(puzzle)
	if !ok {
		return protocol.Bytes32{}, false, fmt.Errorf("puzzle is not a settlement construct")
	}
	if protocol.Bytes32(a.TreeHash(mod)) != catModHash || len(args) != 3 {
		return protocol.Bytes32{}, false, fmt.Errorf("puzzle is not a settlement construct")
	}
	idBuf, isAtom := a.Atom(args[1])
	if !isAtom {
		return protocol.Bytes32{}, false, fmt.Errorf("token asset id is not an atom")
	}
	assetID, err := protocol.Bytes32FromSlice(idBuf)
	if err != nil {
		return protocol.Bytes32{}, false, fmt.Errorf("token asset id: %w", err)
	}
	if protocol.Bytes32(a.TreeHash(args[2])) != SettlementPuzzleHash {
		return protocol.Bytes32{}, false, fmt.Errorf("token inner puzzle is not the settlement program")
	}
	return assetID, true, nil
}

// parseAnnouncedPayments reads the notarized payments announced by one
// settlement solution along with the puzzle-announcement id each one
// produces: sha256 of the announcer's puzzle hash and the payment's tree
// hash.
func parseAnnouncedPayments(
	a *clvm.Arena, solution []byte, announcer protocol.Bytes32,
) ([]NotarizedPayment, []protocol.Bytes32, error) {
	root, err := a.ParseAll(solution)
	if err != nil {
		return nil, nil, fmt.Errorf("solution: %w", err)
	}
	items, err := a.ListItems(root)
	if err != nil {
		return nil, nil, fmt.Errorf("solution: %w", err)
	}
	nps := make([]NotarizedPayment, 0, len(items))
	ids := make([]protocol.Bytes32, 0, len(items))
	for i, item := range items {
		np, err := parseNotarizedPayment(a, item)
		if err != nil {
			return nil, nil, fmt.Errorf("notarized payment %d: %w", i, err)
		}
		nps = append(nps, np)
		npHash := a.TreeHash(item)
		h := sha256.New()
		h.Write(announcer[:])
		h.Write(npHash[:])
		var id protocol.Bytes32
		h.Sum(id[:0])
		ids = append(ids, id)
	}
	return nps, ids, nil
}

// ValidateOffer checks the structural and cryptographic soundness of an
// encoded offer against mainnet parameters. It is a pure predicate: nil
// means the offer is sound.
func ValidateOffer(offer string) error {
	return ValidateOfferOnNetwork(offer, Mainnet)
}

// ValidateOfferOnNetwork runs the validation pipeline, failing fast on the
// first violation: every puzzle reveal must hash to its declared puzzle
// hash, the aggregated signature must authorize the derivable signing
// requirements, and the settlement structure must parse consistently, with
// every asserted puzzle announcement matching an announced payment.
func ValidateOfferOnNetwork(offer string, network Network) error {
	bundle, err := DecodeOffer(offer)
	if err != nil {
		return err
	}
	for i, cs := range bundle.CoinSpends {
		a := clvm.New()
		puzzle, err := a.ParseAll([]byte(cs.PuzzleReveal))
		if err != nil {
			return offererrors.Structural.Wrap(
				fmt.Errorf("coin spend %d: puzzle reveal: %w", i, err))
		}
		if got := protocol.Bytes32(a.TreeHash(puzzle)); got != cs.Coin.PuzzleHash {
			return offererrors.CryptoVerification.New(
				"coin spend %d: puzzle reveal hashes to %s, declared %s",
				i, got, cs.Coin.PuzzleHash)
		}
	}
	reqs, err := gatherRequirements(bundle, network)
	if err != nil {
		return err
	}
	ok, err := bls.AggregateVerify(reqs.keys, reqs.messages, bundle.AggregatedSignature)
	if err != nil {
		return offererrors.CryptoVerification.Wrap(err)
	}
	if !ok {
		return offererrors.CryptoVerification.New(
			"aggregated signature does not authorize the bundle")
	}
	view, err := Parse(bundle)
	if err != nil {
		return err
	}
	announced := make(map[protocol.Bytes32]bool, len(view.Announcements))
	for _, id := range view.Announcements {
		announced[id] = true
	}
	for _, id := range reqs.asserts {
		if !announced[id] {
			return offererrors.Structural.New(
				"asserted puzzle announcement %s matches no announced payment", id)
		}
	}
	return nil
}

// requirements aggregates what the bundle's spends demand: the (key,
// message) pairs the aggregated signature must cover and the puzzle
// announcements the spends assert.
type requirements struct {
	keys     []bls.PublicKey
	messages [][]byte
	asserts  []protocol.Bytes32
}

// gatherRequirements derives signing requirements structurally: settlement
// spends carry none, standard-transaction spends sign their delegated
// program bound to the coin id, and quoted-condition programs state theirs
// directly. Programs outside these shapes contribute nothing, since
// running them is out of scope here.
func gatherRequirements(bundle protocol.SpendBundle, network Network) (*requirements, error) {
	reqs := &requirements{}
	for i, cs := range bundle.CoinSpends {
		a := clvm.New()
		puzzle, err := a.ParseAll([]byte(cs.PuzzleReveal))
		if err != nil {
			return nil, offererrors.Structural.Wrap(
				fmt.Errorf("coin spend %d: puzzle reveal: %w", i, err))
		}
		solution, err := a.ParseAll([]byte(cs.Solution))
		if err != nil {
			return nil, offererrors.Structural.Wrap(
				fmt.Errorf("coin spend %d: solution: %w", i, err))
		}
		if err := reqs.addSpend(a, puzzle, solution, cs.Coin.ID(), network); err != nil {
			return nil, offererrors.Structural.Wrap(
				fmt.Errorf("coin spend %d: %w", i, err))
		}
	}
	return reqs, nil
}

func (r *requirements) addSpend(
	a *clvm.Arena, puzzle, solution clvm.NodeRef,
	coinID protocol.Bytes32, network Network,
) error {
	if protocol.Bytes32(a.TreeHash(puzzle)) == SettlementPuzzleHash {
		return nil
	}
	if mod, args, ok := a.Uncurry(puzzle); ok {
		modHash := protocol.Bytes32(a.TreeHash(mod))
		if modHash == catModHash && len(args) == 3 {
			items, err := a.ListItems(solution)
			if err != nil || len(items) == 0 {
				return fmt.Errorf("token outer solution is not a list")
			}
			return r.addSpend(a, args[2], items[0], coinID, network)
		}
		if modHash == standardModHash && len(args) == 1 {
			return r.addStandardSpend(a, args[0], solution, coinID, network)
		}
		return nil
	}
	if conds, ok := quotedConditions(a, puzzle); ok {
		return r.addConditions(a, conds, coinID, network)
	}
	return nil
}

// addStandardSpend handles the standard transaction program: the curried
// synthetic key signs the delegated program's tree hash bound to the coin
// id. The hidden path reveals no signing requirement.
func (r *requirements) addStandardSpend(
	a *clvm.Arena, syntheticKey clvm.NodeRef, solution clvm.NodeRef,
	coinID protocol.Bytes32, network Network,
) error {
	keyBuf, isAtom := a.Atom(syntheticKey)
	if !isAtom || len(keyBuf) != bls.PublicKeySize {
		return fmt.Errorf("synthetic key is not a %d-byte atom", bls.PublicKeySize)
	}
	items, err := a.ListItems(solution)
	if err != nil || len(items) != 3 {
		return fmt.Errorf("standard solution is not (original_public_key delegated_puzzle delegated_solution)")
	}
	if !a.IsNil(items[0]) {
		// hidden path, authorized by the revealed original key instead
		return nil
	}
	var pk bls.PublicKey
	copy(pk[:], keyBuf)
	delegatedHash := a.TreeHash(items[1])
	msg := make([]byte, 0, 96)
	msg = append(msg, delegatedHash[:]...)
	msg = append(msg, coinID[:]...)
	msg = append(msg, network.AggSigData[:]...)
	r.keys = append(r.keys, pk)
	r.messages = append(r.messages, msg)
	if conds, ok := quotedConditions(a, items[1]); ok {
		return r.addConditions(a, conds, coinID, network)
	}
	return nil
}

func quotedConditions(a *clvm.Arena, puzzle clvm.NodeRef) (clvm.NodeRef, bool) {
	left, right, isPair := a.Pair(puzzle)
	if !isPair {
		return clvm.InvalidRef, false
	}
	buf, isAtom := a.Atom(left)
	if !isAtom || len(buf) != 1 || buf[0] != 0x01 {
		return clvm.InvalidRef, false
	}
	return right, true
}

func (r *requirements) addConditions(
	a *clvm.Arena, conds clvm.NodeRef, coinID protocol.Bytes32, network Network,
) error {
	items, err := a.ListItems(conds)
	if err != nil {
		return fmt.Errorf("condition list: %w", err)
	}
	for i, cond := range items {
		fields, err := a.ListItems(cond)
		if err != nil || len(fields) == 0 {
			continue
		}
		opcode, err := a.Uint64(fields[0])
		if err != nil {
			continue
		}
		switch opcode {
		case condAggSigUnsafe, condAggSigMe:
			if len(fields) < 3 {
				return fmt.Errorf("condition %d: agg sig needs a key and a message", i)
			}
			keyBuf, isAtom := a.Atom(fields[1])
			if !isAtom || len(keyBuf) != bls.PublicKeySize {
				return fmt.Errorf("condition %d: agg sig key is not a %d-byte atom", i, bls.PublicKeySize)
			}
			msgBuf, isAtom := a.Atom(fields[2])
			if !isAtom {
				return fmt.Errorf("condition %d: agg sig message is not an atom", i)
			}
			var pk bls.PublicKey
			copy(pk[:], keyBuf)
			msg := append([]byte(nil), msgBuf...)
			if opcode == condAggSigMe {
				msg = append(msg, coinID[:]...)
				msg = append(msg, network.AggSigData[:]...)
			}
			r.keys = append(r.keys, pk)
			r.messages = append(r.messages, msg)
		case condAssertPuzzleAnnouncement:
			if len(fields) < 2 {
				return fmt.Errorf("condition %d: assert announcement needs an id", i)
			}
			idBuf, isAtom := a.Atom(fields[1])
			if !isAtom {
				return fmt.Errorf("condition %d: announcement id is not an atom", i)
			}
			id, err := protocol.Bytes32FromSlice(idBuf)
			if err != nil {
				return fmt.Errorf("condition %d: announcement id: %w", i, err)
			}
			r.asserts = append(r.asserts, id)
		}
	}
	return nil
}
