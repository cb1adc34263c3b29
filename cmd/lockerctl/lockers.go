package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"smartlocker-web/internal/lockers"
)

func handleLockers(args []string) {
	fs := flag.NewFlagSet("lockers", flag.ExitOnError)
	out := addOutputFlag(fs)
	watch := fs.Bool("watch", false, "keep polling until interrupted")
	interval := fs.Duration("interval", 0, "poll interval (default POLL_INTERVAL or 10s)")
	_ = fs.Parse(args)
	fatal(out.validate())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx)
	fatal(err)
	fatal(s.require("/lockers"))
	dir := lockers.NewDirectory(s.api, s.gw, s.logger)

	if !*watch {
		list, err := dir.FetchAll(ctx)
		fatal(err)
		fatal(printLockers(os.Stdout, out.format, list))
		return
	}

	every := *interval
	if every <= 0 {
		every = s.cfg.Poll()
	}
	w := dir.Watch(every, func(snap lockers.Snapshot) {
		fmt.Printf("\n%s\n", snap.FetchedAt.Format(time.TimeOnly))
		if snap.Err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  %v (showing last result)\n", snap.Err)
		}
		if snap.Loaded {
			_ = printLockers(os.Stdout, out.format, snap.Lockers)
		}
	})
	<-ctx.Done()
	w.Stop()
}

func handleReserve(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: lockerctl reserve <id> <hours>")
		os.Exit(1)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fatal(fmt.Errorf("invalid locker id %q", args[0]))
	}
	hours, err := strconv.Atoi(args[1])
	if err != nil {
		fatal(fmt.Errorf("invalid duration %q", args[1]))
	}

	ctx := context.Background()
	s, err := openSession(ctx)
	fatal(err)
	fatal(s.require("/lockers/{id}/reserve"))
	dir := lockers.NewDirectory(s.api, s.gw, s.logger)

	if err := dir.Reserve(ctx, id, hours); err != nil {
		fatal(fmt.Errorf("reservation failed: %w", err))
	}
	fmt.Println("✅ Locker reserved successfully!")

	list, err := dir.FetchAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  %v\n", err)
		return
	}
	if l, ok := lockers.Find(list, id); ok {
		fmt.Printf("%s at %s is now %s; estimated total $%s\n", l.LockerNumber, l.Location, l.Status, l.Quote(hours))
	}
}
