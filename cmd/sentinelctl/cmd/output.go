package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"sentinel/internal/domain"
)

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printBan renders a single ban in the configured output format.
func printBan(b *domain.Ban) error {
	if cfg.Output.Format == "json" {
		return printJSON(b)
	}

	fmt.Printf("Ban #%d\n", b.ID)
	fmt.Printf("  Player:    %s (%s)\n", b.PlayerName, b.PlayerID)
	fmt.Printf("  Operator:  %s\n", b.Operator)
	fmt.Printf("  Category:  %s\n", b.Category)
	fmt.Printf("  Reasons:   %s\n", strings.Join(b.Reasons, ", "))
	fmt.Printf("  Created:   %s\n", b.CreatedAt.Format(time.RFC3339))
	if b.ExpiresAt != nil {
		fmt.Printf("  Expires:   %s (%s left)\n",
			b.ExpiresAt.Format(time.RFC3339),
			(time.Duration(b.Remaining(time.Now())) * time.Second).String(),
		)
	} else {
		fmt.Printf("  Expires:   never\n")
	}
	fmt.Printf("  Active:    %v\n", b.Active)
	if b.Notice != "" {
		fmt.Printf("  Notice:    %s\n", b.Notice)
	}
	return nil
}

// printBanList renders bans as a table, or JSON when configured.
func printBanList(bans []*domain.Ban) error {
	if cfg.Output.Format == "json" {
		return printJSON(bans)
	}

	if len(bans) == 0 {
		fmt.Println("No bans found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLAYER\tCATEGORY\tREASONS\tEXPIRES\tACTIVE")
	for _, b := range bans {
		expires := "never"
		if b.ExpiresAt != nil {
			expires = b.ExpiresAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%v\n",
			b.ID, b.PlayerName, b.Category, strings.Join(b.Reasons, ","), expires, b.Active)
	}
	return w.Flush()
}

// printReasonList renders catalog reasons as a table, or JSON when configured.
func printReasonList(reasons []*domain.Reason) error {
	if cfg.Output.Format == "json" {
		return printJSON(reasons)
	}

	if len(reasons) == 0 {
		fmt.Println("No reasons defined.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tDURATION")
	for _, r := range reasons {
		duration := "permanent"
		if !r.Permanent() {
			duration = (time.Duration(r.DurationSeconds) * time.Second).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Category, duration)
	}
	return w.Flush()
}

// printPlayer renders a player record in the configured output format.
func printPlayer(p *domain.Player) error {
	if cfg.Output.Format == "json" {
		return printJSON(p)
	}

	fmt.Printf("Player %s\n", p.ID)
	fmt.Printf("  Name:    %s\n", p.Name)
	fmt.Printf("  Points:  %d\n", p.Points)
	if len(p.IPs) > 0 {
		fmt.Printf("  IPs:     %s\n", strings.Join(p.IPs, ", "))
	}
	return nil
}
