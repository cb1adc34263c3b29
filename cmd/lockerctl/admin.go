package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"smartlocker-web/internal/lockers"
	"smartlocker-web/internal/models"
)

func handleAdmin(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: lockerctl admin list|stats|create|status|delete")
		os.Exit(1)
	}

	switch args[0] {
	case "list", "ls":
		handleAdminList(args[1:])
	case "stats":
		handleAdminStats(args[1:])
	case "create", "add":
		handleAdminCreate(args[1:])
	case "status":
		handleAdminStatus(args[1:])
	case "delete", "rm":
		handleAdminDelete(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown admin subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func adminInventory(ctx context.Context, route string) *lockers.Inventory {
	s, err := openSession(ctx)
	fatal(err)
	fatal(s.require(route))
	return lockers.NewInventory(s.api, s.gw, s.logger)
}

func handleAdminList(args []string) {
	fs := flag.NewFlagSet("admin list", flag.ExitOnError)
	out := addOutputFlag(fs)
	_ = fs.Parse(args)
	fatal(out.validate())

	ctx := context.Background()
	list, err := adminInventory(ctx, "/admin/lockers").List(ctx)
	fatal(err)
	fatal(printLockers(os.Stdout, out.format, list))
}

func handleAdminStats(args []string) {
	fs := flag.NewFlagSet("admin stats", flag.ExitOnError)
	out := addOutputFlag(fs)
	_ = fs.Parse(args)
	fatal(out.validate())

	ctx := context.Background()
	stats, err := adminInventory(ctx, "/admin/lockers").Stats(ctx)
	fatal(err)
	fatal(printStats(os.Stdout, out.format, *stats))
}

func handleAdminCreate(args []string) {
	fs := flag.NewFlagSet("admin create", flag.ExitOnError)
	number := fs.String("number", "", "locker number, e.g. B12")
	location := fs.String("location", "", "where the locker is")
	price := fs.String("price", "", "price per hour, e.g. 1.50")
	status := fs.String("status", string(models.StatusAvailable), "initial status")
	_ = fs.Parse(args)
	if *number == "" || *location == "" || *price == "" {
		fmt.Fprintln(os.Stderr, "Usage: lockerctl admin create -number <n> -location <loc> -price <p> [-status available]")
		os.Exit(1)
	}

	ctx := context.Background()
	added, err := adminInventory(ctx, "/admin/lockers").Create(ctx, models.NewLocker{
		LockerNumber: *number,
		Location:     *location,
		PricePerHour: *price,
		Status:       models.Status(*status),
	})
	if err != nil {
		fatal(fmt.Errorf("failed to add locker: %w", err))
	}
	fmt.Printf("✅ Locker %s added successfully! (id %d)\n", added.LockerNumber, added.ID)
}

func handleAdminStatus(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: lockerctl admin status <id> <available|occupied|maintenance>")
		os.Exit(1)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fatal(fmt.Errorf("invalid locker id %q", args[0]))
	}
	status, err := models.ParseStatus(args[1])
	fatal(err)

	ctx := context.Background()
	inv := adminInventory(ctx, "/admin/lockers/{id}/status")
	list, err := inv.List(ctx)
	fatal(err)
	updated, err := inv.UpdateStatus(ctx, id, status)
	if err != nil {
		fatal(fmt.Errorf("failed to update locker: %w", err))
	}
	fmt.Printf("✅ Locker %s status updated to %s\n\n", updated.LockerNumber, status)
	fatal(printLockers(os.Stdout, "table", lockers.Replace(list, *updated)))
}

func handleAdminDelete(args []string) {
	fs := flag.NewFlagSet("admin delete", flag.ExitOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: lockerctl admin delete <id> [-yes]")
		os.Exit(1)
	}
	id, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		fatal(fmt.Errorf("invalid locker id %q", fs.Arg(0)))
	}

	ctx := context.Background()
	inv := adminInventory(ctx, "/admin/lockers/{id}/delete")
	list, err := inv.List(ctx)
	fatal(err)
	target, ok := lockers.Find(list, id)
	if !ok {
		fatal(fmt.Errorf("locker %d not found", id))
	}

	if !*yes {
		fmt.Printf("Are you sure you want to delete locker %s? [y/N] ", target.LockerNumber)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	if err := inv.Remove(ctx, id); err != nil {
		fatal(fmt.Errorf("failed to delete locker: %w", err))
	}
	fmt.Printf("✅ Locker %s deleted successfully!\n\n", target.LockerNumber)
	fatal(printLockers(os.Stdout, "table", lockers.Without(list, id)))
}
