package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/dmitrijs2005/atlaskeeper/internal/client/ledger"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/models"
	"github.com/dmitrijs2005/atlaskeeper/internal/client/storage"
	"github.com/dmitrijs2005/atlaskeeper/internal/flagx"
	"github.com/dustin/go-humanize"
)

var errUsage = errors.New("wrong arguments, type 'help' for usage")

// Add queues every path given. -e encrypts, -r sets the replica count.
func (a *App) Add(ctx context.Context, args []string) error {
	flags, paths := flagx.Split(args, []string{"-r"}, []string{"-e"})

	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	encrypt := fs.Bool("e", false, "encrypt before upload")
	replicas := fs.Int("r", 0, "replica count")
	if err := fs.Parse(flags); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if len(paths) == 0 {
		return errUsage
	}

	var errs []error
	for _, p := range paths {
		e, err := a.queue.Enqueue(ctx, p, storage.FileOptions{Encrypt: *encrypt, Replicas: *replicas})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(a.out, "queued %s (%s)\n", e.Source.Name, humanize.IBytes(uint64(e.Source.Size)))
	}
	return errors.Join(errs...)
}

// List prints the queue.
func (a *App) List(ctx context.Context) error {
	entries := a.queue.List()
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "queue is empty")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS\tSIZE\tENCRYPTED\tFID")
	for _, e := range entries {
		status := string(e.Status)
		switch {
		case e.Status == storage.StatusError:
			status += ": " + e.Error
		case e.TxHash != "":
			status += " (registered)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", e.Source.Name, status, humanize.IBytes(uint64(e.Size)), e.Encrypted, shortHex(e.FID))
	}
	return tw.Flush()
}

// Meta merges key=value pairs into a queued file's metadata. Without pairs
// on the command line they are read interactively.
func (a *App) Meta(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	name, items := args[0], args[1:]

	if len(items) == 0 {
		var err error
		items, err = GetMetadata(a.reader, a.out)
		if err != nil {
			return err
		}
	}

	md, err := models.ParseMetadata(items)
	if err != nil {
		return err
	}
	return a.queue.UpdateMetadata(name, md)
}

// Remove drops finished entries and cancels the rest.
func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	var errs []error
	for _, name := range args {
		if err := a.queue.Remove(filepath.Base(name)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) Clear(ctx context.Context) error {
	a.queue.Clear()
	fmt.Fprintln(a.out, "queue cleared")
	return nil
}

// Upload registers the ready files and delivers them.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	var dir string
	if len(args) == 1 {
		dir = args[0]
	}

	report, err := a.queue.Upload(ctx, dir)
	if err != nil {
		var txErr *ledger.TxError
		if errors.As(err, &txErr) {
			return fmt.Errorf("ledger rejected transaction %s (code %d): %s", txErr.Hash, txErr.Code, txErr.RawLog)
		}
		return err
	}

	fmt.Fprintf(a.out, "transaction %s included at height %d\n", report.TxHash, report.Height)
	for _, r := range report.Uploaded {
		fmt.Fprintf(a.out, "  uploaded %s -> %s (%s)\n", r.Name, r.Path, humanize.IBytes(uint64(r.Size)))
	}
	for _, f := range report.Failed {
		fmt.Fprintf(a.out, "  failed   %s: %s (still queued)\n", f.Name, f.Message)
	}
	return nil
}

// Receipts lists past uploads from the local database.
func (a *App) Receipts(ctx context.Context) error {
	list, err := a.receipts.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "no uploads yet")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPATH\tSIZE\tUPLOADED\tTX")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Name, r.Path, humanize.IBytes(uint64(r.Size)), humanize.Time(r.UploadedAt), shortHex(r.TxHash))
	}
	return tw.Flush()
}

// Status prints the wallet, ledger connectivity and a queue summary.
func (a *App) Status(ctx context.Context) error {
	a.checkOnline(ctx)

	a.modeMu.Lock()
	mode := a.Mode
	a.modeMu.Unlock()

	counts := make(map[storage.Status]int)
	entries := a.queue.List()
	for _, e := range entries {
		counts[e.Status]++
	}

	fmt.Fprintf(a.out, "address: %s (%s wallet)\n", a.address, a.walletKind)
	fmt.Fprintf(a.out, "ledger:  %s\n", mode)
	fmt.Fprintf(a.out, "queue:   %d files, %d ready, %d processing, %d failed\n",
		len(entries), counts[storage.StatusReady],
		counts[storage.StatusIdle]+counts[storage.StatusEncrypting]+counts[storage.StatusMerkling],
		counts[storage.StatusError])
	return nil
}

func shortHex(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:12] + "…"
}

func shortAddress(addr string) string {
	if len(addr) <= 16 {
		return addr
	}
	return addr[:10] + "…" + addr[len(addr)-4:]
}

// printEvents writes one line per queue event until ctx ends or the
// subscription closes.
func (a *App) printEvents(ctx context.Context, events <-chan storage.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if line := formatEvent(ev); line != "" {
				fmt.Fprintln(a.out, line)
			}
		}
	}
}

func formatEvent(ev storage.Event) string {
	switch ev.Kind {
	case storage.EventEncrypted:
		return fmt.Sprintf("[%s] encrypted, %s to upload", ev.Name, humanize.IBytes(uint64(ev.FileSize)))
	case storage.EventMerkleBuilt:
		return fmt.Sprintf("[%s] merkle root %s", ev.Name, shortHex(ev.MerkleRoot))
	case storage.EventReady:
		return fmt.Sprintf("[%s] ready", ev.Name)
	case storage.EventError:
		return fmt.Sprintf("[%s] failed: %s", ev.Name, ev.Message)
	case storage.EventProgress:
		if ev.Percent%25 == 0 {
			return fmt.Sprintf("[%s] upload %d%%", ev.Name, ev.Percent)
		}
	}
	return ""
}
