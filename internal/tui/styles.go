package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderLogo renders the "R O O M B O O K" wordmark in the accent green.
func renderLogo() string {
	letters := strings.Split("ROOMBOOK", "")
	return logoStyle.Render(strings.Join(letters, "  "))
}

var (
	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80")).
			Bold(true)

	// Base styles — neutral palette
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Accent / status
	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34d474"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ade80"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#b45555"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f59e0b"))

	coffeeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844"))

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#606878"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#34d474")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	// Selected row background
	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#1e1e2a"))

	// Confirm overlay frame
	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#1e1e2a")).
			Padding(1, 3)
)

func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpView renders the static key-reference overlay.
func helpView() string {
	title := logoStyle.Render("R O O M B O O K")

	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	keyStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	sections := []struct {
		name string
		keys []struct{ key, desc string }
	}{
		{"Global", []struct{ key, desc string }{
			{"1 / 2 / 3", "reservations, locations, rooms"},
			{"?", "this help"},
			{"p", "change password"},
			{"s", "sign out"},
			{"q / ctrl+c", "quit"},
		}},
		{"Reservations", []struct{ key, desc string }{
			{"j / k", "move between rows"},
			{"h / l", "previous / next page"},
			{"n", "new reservation"},
			{"enter / e", "edit selected"},
			{"d", "delete selected (asks first)"},
			{"y", "copy selected to clipboard"},
			{"r", "refresh"},
		}},
		{"Forms", []struct{ key, desc string }{
			{"tab / shift+tab", "next / previous field"},
			{"h / l", "cycle location or room"},
			{"space", "toggle coffee"},
			{"ctrl+s", "submit"},
			{"esc", "cancel"},
		}},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n", title)
	for _, s := range sections {
		fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render(s.name))
		for _, k := range s.keys {
			fmt.Fprintf(&b, "    %s  %s\n", keyStyle.Render(fmt.Sprintf("%-16s", k.key)), descStyle.Render(k.desc))
		}
	}
	return b.String()
}
