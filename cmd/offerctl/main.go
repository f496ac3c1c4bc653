package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/greenfloor/offerkit/offer"
	"github.com/greenfloor/offerkit/protocol"
)

const appName = "offerctl"

func main() {
	app := &cli.App{
		Name:  appName,
		Usage: "validate, inspect and take offers",
		Flags: []cli.Flag{logLevelFlag},
		Before: func(ctx *cli.Context) error {
			level, err := log.ParseLevel(configuredString(ctx, logLevelFlagName))
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return nil
		},
		Commands: []*cli.Command{
			validateCmd, inspectCmd, takeCmd,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var validateCmd = &cli.Command{
	Name:   "validate",
	Usage:  "check the structural and cryptographic soundness of an offer",
	Flags:  []cli.Flag{offerFlag, fileFlag, networkFlag},
	Action: validateAction,
}

var inspectCmd = &cli.Command{
	Name:   "inspect",
	Usage:  "print the decoded view of an offer as JSON",
	Flags:  []cli.Flag{offerFlag, fileFlag},
	Action: inspectAction,
}

var takeCmd = &cli.Command{
	Name:   "take",
	Usage:  "combine a signed input bundle with requested payments into one bundle",
	Flags:  []cli.Flag{bundleFlag, paymentFlag, outputFlag, encodeFlag},
	Action: takeAction,
}

func validateAction(ctx *cli.Context) error {
	offerStr, err := readOfferArg(ctx)
	if err != nil {
		return err
	}
	name := configuredString(ctx, networkFlagName)
	network, ok := offer.NetworkByName(name)
	if !ok {
		return fmt.Errorf("unknown network %q", name)
	}
	if err := offer.ValidateOfferOnNetwork(offerStr, network); err != nil {
		return err
	}
	fmt.Println("offer is valid")
	return nil
}

func inspectAction(ctx *cli.Context) error {
	offerStr, err := readOfferArg(ctx)
	if err != nil {
		return err
	}
	view, err := offer.ParseOffer(offerStr)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(summarize(view))
}

func takeAction(ctx *cli.Context) error {
	bundleHex, err := readInput(ctx.String(bundleFlagName))
	if err != nil {
		return err
	}
	bundle, err := hex.DecodeString(strings.TrimSpace(bundleHex))
	if err != nil {
		return fmt.Errorf("failed to decode bundle hex: %s", err)
	}
	requests, err := parsePaymentFlags(ctx.StringSlice(paymentFlagName))
	if err != nil {
		return err
	}
	combined, err := offer.FromInputSpendBundleXCH(bundle, requests)
	if err != nil {
		return err
	}
	out := hex.EncodeToString(combined)
	if ctx.Bool(encodeFlagName) {
		decoded, err := protocol.SpendBundleFromBytes(combined)
		if err != nil {
			return err
		}
		if out, err = offer.EncodeOffer(decoded); err != nil {
			return err
		}
	}
	if path := ctx.String(outputFlagName); path != "" {
		return os.WriteFile(path, []byte(out+"\n"), 0644)
	}
	fmt.Println(out)
	return nil
}

// parsePaymentFlags parses repeated nonce:puzzle_hash:amount entries,
// grouping consecutive entries sharing a nonce into one request.
func parsePaymentFlags(entries []string) ([]offer.PaymentRequest, error) {
	var requests []offer.PaymentRequest
	for _, entry := range entries {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid payment %q, want nonce:puzzle_hash:amount", entry)
		}
		nonce, err := hex.DecodeString(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid nonce in %q: %s", entry, err)
		}
		puzzleHash, err := hex.DecodeString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid puzzle hash in %q: %s", entry, err)
		}
		amount, err := strconv.ParseUint(parts[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in %q: %s", entry, err)
		}
		payment := offer.RequestedCoin{PuzzleHash: puzzleHash, Amount: amount}
		if n := len(requests); n > 0 && strings.EqualFold(hex.EncodeToString(requests[n-1].Nonce), parts[0]) {
			requests[n-1].Payments = append(requests[n-1].Payments, payment)
			continue
		}
		requests = append(requests, offer.PaymentRequest{
			Nonce:    nonce,
			Payments: []offer.RequestedCoin{payment},
		})
	}
	return requests, nil
}

func readOfferArg(ctx *cli.Context) (string, error) {
	if s := ctx.String(offerFlagName); s != "" {
		return strings.TrimSpace(s), nil
	}
	if path := ctx.String(fileFlagName); path != "" {
		buf, err := readInput(path)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(buf), nil
	}
	return "", fmt.Errorf("missing offer, use --%s or --%s", offerFlagName, fileFlagName)
}

func readInput(path string) (string, error) {
	if path == "-" {
		buf, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(buf), nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

type paymentSummary struct {
	PuzzleHash string   `json:"puzzle_hash"`
	Amount     uint64   `json:"amount"`
	Memos      []string `json:"memos,omitempty"`
}

type notarizedSummary struct {
	Nonce    string           `json:"nonce"`
	Payments []paymentSummary `json:"payments"`
}

type offerSummary struct {
	OfferedSpends int                           `json:"offered_spends"`
	RequestedXch  []notarizedSummary            `json:"requested_xch"`
	RequestedCats map[string][]notarizedSummary `json:"requested_cats,omitempty"`
	Signature     string                        `json:"aggregated_signature"`
}

func summarize(view offer.Offer) offerSummary {
	out := offerSummary{
		OfferedSpends: len(view.OfferedSpends),
		RequestedXch:  summarizeNotarized(view.Requested.Xch),
		Signature:     hex.EncodeToString(view.Bundle.AggregatedSignature[:]),
	}
	if len(view.Requested.Cats) > 0 {
		out.RequestedCats = make(map[string][]notarizedSummary, len(view.Requested.Cats))
		for _, cat := range view.Requested.Cats {
			out.RequestedCats[cat.AssetID.String()] = summarizeNotarized(cat.Payments)
		}
	}
	return out
}

func summarizeNotarized(nps []offer.NotarizedPayment) []notarizedSummary {
	out := make([]notarizedSummary, 0, len(nps))
	for _, np := range nps {
		s := notarizedSummary{Nonce: np.Nonce.String()}
		for _, p := range np.Payments {
			ps := paymentSummary{PuzzleHash: p.PuzzleHash.String(), Amount: p.Amount}
			for _, m := range p.Memos {
				ps.Memos = append(ps.Memos, hex.EncodeToString(m))
			}
			s.Payments = append(s.Payments, ps)
		}
		out = append(out, s)
	}
	return out
}
