package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v2"

	"smartlocker-web/internal/models"
)

type lockerRow struct {
	ID       int    `yaml:"id"`
	Number   string `yaml:"locker_number"`
	Location string `yaml:"location"`
	Price    string `yaml:"price_per_hour"`
	Status   string `yaml:"status"`
}

type identity struct {
	Username  string `yaml:"username"`
	Email     string `yaml:"email,omitempty"`
	Role      string `yaml:"role"`
	API       string `yaml:"api"`
	ExpiresAt string `yaml:"access_expires_at,omitempty"`
}

func writeYAML(out io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func printLockers(out io.Writer, format string, list []models.Locker) error {
	rows := make([]lockerRow, 0, len(list))
	for _, l := range list {
		rows = append(rows, lockerRow{
			ID:       l.ID,
			Number:   l.LockerNumber,
			Location: l.Location,
			Price:    l.PricePerHour.String(),
			Status:   string(l.Status),
		})
	}
	if format == "yaml" {
		return writeYAML(out, rows)
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, "No lockers found.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tLOCATION\tPRICE/H\tSTATUS")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t$%s\t%s\n", r.ID, r.Number, r.Location, r.Price, r.Status)
	}
	return w.Flush()
}

func printStats(out io.Writer, format string, st models.LockerStats) error {
	if format == "yaml" {
		return writeYAML(out, map[string]int{
			"total":       st.Total,
			"available":   st.Available,
			"occupied":    st.Occupied,
			"maintenance": st.Maintenance,
		})
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Total:\t%d\n", st.Total)
	fmt.Fprintf(w, "Available:\t%d\n", st.Available)
	fmt.Fprintf(w, "Occupied:\t%d\n", st.Occupied)
	fmt.Fprintf(w, "Maintenance:\t%d\n", st.Maintenance)
	return w.Flush()
}

func printIdentity(out io.Writer, format string, sess *models.Session, apiURL string) error {
	if sess == nil || sess.User == nil {
		return fmt.Errorf("no session")
	}
	id := identity{
		Username: sess.User.Username,
		Email:    sess.User.Email,
		Role:     "user",
		API:      apiURL,
	}
	if sess.User.IsAdmin {
		id.Role = "admin"
	}
	if exp, ok := sess.AccessExpiry(); ok {
		id.ExpiresAt = exp.UTC().Format(time.RFC3339)
	}
	if format == "yaml" {
		return writeYAML(out, id)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Username:\t%s\n", id.Username)
	fmt.Fprintf(w, "Email:\t%s\n", fallback(id.Email, "-"))
	fmt.Fprintf(w, "Role:\t%s\n", id.Role)
	fmt.Fprintf(w, "API:\t%s\n", id.API)
	fmt.Fprintf(w, "Access expires:\t%s\n", fallback(id.ExpiresAt, "unknown"))
	return w.Flush()
}

func fallback(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
