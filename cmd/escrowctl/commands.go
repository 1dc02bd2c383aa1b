package main

import (
	"fmt"
	"math/big"

	"github.com/urfave/cli"

	"github.com/escrowd/coordinator/codec"
	"github.com/escrowd/coordinator/escrow"
	"github.com/escrowd/coordinator/ledger"
	"github.com/escrowd/coordinator/store"
)

func parseChain(s string) (ledger.ChainCode, error) {
	switch s {
	case "xrpl":
		return ledger.XRPL, nil
	case "cardano":
		return ledger.Cardano, nil
	default:
		return 0, fmt.Errorf("unknown chain %q", s)
	}
}

func parseSide(s string) (store.Side, error) {
	switch s {
	case "dst", "destination":
		return store.Destination, nil
	case "src", "source":
		return store.Source, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

func parseAmount(s string) (*big.Int, error) {
	amt, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a base-10 integer: %q", s)
	}
	return amt, nil
}

var createDstCommand = cli.Command{
	Name:      "create",
	Usage:     "create a new escrow",
	ArgsUsage: "--chain xrpl|cardano --order_hash hash --hashlock hash --maker addr --taker addr --amount n --safety_deposit n",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "chain", Value: "xrpl", Usage: "target chain: xrpl or cardano"},
		cli.StringFlag{Name: "order_hash", Usage: "32-byte order hash, 0x-prefixed hex"},
		cli.StringFlag{Name: "hashlock", Usage: "32-byte hashlock digest, 0x-prefixed hex"},
		cli.StringFlag{Name: "maker", Usage: "maker address"},
		cli.StringFlag{Name: "taker", Usage: "taker address"},
		cli.StringFlag{Name: "token", Usage: "token/asset identifier, empty for native"},
		cli.StringFlag{Name: "amount", Usage: "principal amount, base-10"},
		cli.StringFlag{Name: "safety_deposit", Usage: "safety deposit amount, base-10"},
		cli.StringFlag{Name: "side", Value: "dst", Usage: "dst or src, selects the cancellation refund policy"},
		cli.Int64SliceFlag{Name: "offset", Usage: "seven timelock offsets in seconds, passed as --offset N seven times, in withdrawal/cancellation phase order"},
	},
	Action: createDst,
}

func createDst(ctx *cli.Context) error {
	chain, err := parseChain(ctx.String("chain"))
	if err != nil {
		return err
	}
	orderHash, err := codec.ParseHash32(ctx.String("order_hash"))
	if err != nil {
		return fmt.Errorf("order_hash: %w", err)
	}
	hashlock, err := codec.ParseHash32(ctx.String("hashlock"))
	if err != nil {
		return fmt.Errorf("hashlock: %w", err)
	}
	side, err := parseSide(ctx.String("side"))
	if err != nil {
		return err
	}
	amount, err := parseAmount(ctx.String("amount"))
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	safetyDeposit, err := parseAmount(ctx.String("safety_deposit"))
	if err != nil {
		return fmt.Errorf("safety_deposit: %w", err)
	}

	offsetArgs := ctx.Int64Slice("offset")
	if len(offsetArgs) != 7 {
		return fmt.Errorf("expected 7 --offset values, got %d", len(offsetArgs))
	}
	var offsets [7]uint32
	for i, v := range offsetArgs {
		offsets[i] = uint32(v)
	}

	req := escrow.CreateRequest{
		Chain:         chain,
		OrderHash:     orderHash,
		Hashlock:      hashlock,
		Maker:         ctx.String("maker"),
		Taker:         ctx.String("taker"),
		Token:         ctx.String("token"),
		Amount:        amount,
		SafetyDeposit: safetyDeposit,
		Offsets:       offsets,
		Side:          side,
	}

	result, err := call(ctx, "CreateDst", req)
	if err != nil {
		return err
	}
	printJSON(result)
	return nil
}

var fundCommand = cli.Command{
	Name:      "fund",
	Usage:     "report deposit transactions for an escrow",
	ArgsUsage: "escrow_id tx_id [tx_id ...]",
	Action:    fund,
}

func fund(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) < 2 {
		cli.ShowCommandHelp(ctx, "fund")
		return nil
	}
	id, err := codec.ParseEscrowID(args[0])
	if err != nil {
		return fmt.Errorf("escrow_id: %w", err)
	}

	req := escrow.FundRequest{
		EscrowID: id,
		TxIDs:    args[1:],
	}

	result, err := call(ctx, "Fund", req)
	if err != nil {
		return err
	}
	printJSON(result)
	return nil
}

var withdrawCommand = cli.Command{
	Name:      "withdraw",
	Usage:     "claim an escrow with its secret",
	ArgsUsage: "escrow_id secret caller_address",
	Flags: []cli.Flag{
		cli.BoolFlag{Name: "public", Usage: "invoke the public withdrawal window instead of the private one"},
	},
	Action: withdraw,
}

func withdraw(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 3 {
		cli.ShowCommandHelp(ctx, "withdraw")
		return nil
	}
	id, err := codec.ParseEscrowID(args[0])
	if err != nil {
		return fmt.Errorf("escrow_id: %w", err)
	}
	secret, err := codec.ParseHash32(args[1])
	if err != nil {
		return fmt.Errorf("secret: %w", err)
	}

	req := escrow.WithdrawRequest{
		EscrowID:      id,
		Secret:        secret[:],
		CallerAddress: args[2],
		IsPublic:      ctx.Bool("public"),
	}

	result, err := call(ctx, "Withdraw", req)
	if err != nil {
		return err
	}
	printJSON(result)
	return nil
}

var cancelCommand = cli.Command{
	Name:      "cancel",
	Usage:     "cancel an unwithdrawn escrow and refund it",
	ArgsUsage: "escrow_id caller_address",
	Action:    cancel,
}

func cancel(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 2 {
		cli.ShowCommandHelp(ctx, "cancel")
		return nil
	}
	id, err := codec.ParseEscrowID(args[0])
	if err != nil {
		return fmt.Errorf("escrow_id: %w", err)
	}

	req := escrow.CancelRequest{
		EscrowID:      id,
		CallerAddress: args[1],
	}

	result, err := call(ctx, "Cancel", req)
	if err != nil {
		return err
	}
	printJSON(result)
	return nil
}

var rescueCommand = cli.Command{
	Name:      "rescue",
	Usage:     "sweep residual funds from an escrow after the rescue delay",
	ArgsUsage: "escrow_id caller_address amount",
	Action:    rescue,
}

func rescue(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 3 {
		cli.ShowCommandHelp(ctx, "rescue")
		return nil
	}
	id, err := codec.ParseEscrowID(args[0])
	if err != nil {
		return fmt.Errorf("escrow_id: %w", err)
	}
	amount, err := parseAmount(args[2])
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}

	req := escrow.RescueRequest{
		EscrowID:      id,
		CallerAddress: args[1],
		Amount:        amount,
	}

	result, err := call(ctx, "Rescue", req)
	if err != nil {
		return err
	}
	printJSON(result)
	return nil
}

var getEscrowCommand = cli.Command{
	Name:      "getescrow",
	Usage:     "display the public view of one escrow",
	ArgsUsage: "escrow_id",
	Action:    getEscrow,
}

func getEscrow(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		cli.ShowCommandHelp(ctx, "getescrow")
		return nil
	}
	id, err := codec.ParseEscrowID(ctx.Args().First())
	if err != nil {
		return fmt.Errorf("escrow_id: %w", err)
	}

	result, err := call(ctx, "GetEscrow", struct {
		EscrowID codec.EscrowID
	}{EscrowID: id})
	if err != nil {
		return err
	}
	printJSON(result)
	return nil
}

var healthCommand = cli.Command{
	Name:   "health",
	Usage:  "report escrowd's liveness and per-chain connectivity",
	Action: health,
}

func health(ctx *cli.Context) error {
	result, err := call(ctx, "Health", struct{}{})
	if err != nil {
		return err
	}
	printJSON(result)
	return nil
}
