// envsetup provides a lightweight .env configuration wizard.
// It runs on first bot startup when no .env file exists and no token
// was supplied, collecting the Discord token and database location.
package envsetup

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const DefaultDatabaseURL = "sqlite://uzscript.db"

type step int

const (
	stepWelcome step = iota
	stepDiscord
	stepGuild
	stepDatabase
	stepConfirm
	stepSaved
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Underline(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))
)

type model struct {
	step         step
	discordToken string
	guildID      string
	databaseURL  string
	input        string
	path         string
	err          error
}

func New(path string) model {
	return model{step: stepWelcome, path: path}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleEnter()
		case tea.KeyBackspace:
			if r := []rune(m.input); len(r) > 0 {
				m.input = string(r[:len(r)-1])
			}
		case tea.KeyRunes:
			m.input += string(msg.Runes)
		case tea.KeySpace:
			m.input += " "
		}
	}
	return m, nil
}

func (m model) handleEnter() (tea.Model, tea.Cmd) {
	m.err = nil
	value := strings.TrimSpace(m.input)

	switch m.step {
	case stepWelcome:
		m.step = stepDiscord

	case stepDiscord:
		if value == "" {
			m.err = errors.New("Discord token is required")
			return m, nil
		}
		m.discordToken = value
		m.step = stepGuild

	case stepGuild:
		m.guildID = value
		m.step = stepDatabase

	case stepDatabase:
		if value == "" {
			value = DefaultDatabaseURL
		}
		m.databaseURL = value
		m.step = stepConfirm

	case stepConfirm:
		switch strings.ToLower(value) {
		case "", "y", "yes":
			if err := os.WriteFile(m.path, []byte(m.envFile()), 0600); err != nil {
				m.err = err
				return m, nil
			}
			m.step = stepSaved
			return m, tea.Quit
		case "n", "no":
			m = New(m.path)
		default:
			m.err = errors.New("Please answer y or n")
			return m, nil
		}
	}

	m.input = ""
	return m, nil
}

func (m model) envFile() string {
	return fmt.Sprintf("DATABASE_URL=%s\nDISCORD_TOKEN=%s\nDISCORD_GUILD_ID=%s\n",
		m.databaseURL, m.discordToken, m.guildID)
}

func (m model) View() string {
	var s strings.Builder

	prompt := func(label, value string) {
		s.WriteString(labelStyle.Render(label))
		s.WriteString("\n> " + inputStyle.Render(value))
		if m.err != nil {
			s.WriteString("\n" + errorStyle.Render(m.err.Error()))
		}
	}

	switch m.step {
	case stepWelcome:
		s.WriteString(titleStyle.Render("uzscript - Bot Setup"))
		s.WriteString("\n\n")
		s.WriteString("No .env file was found. This wizard writes one for the bot.\n")
		s.WriteString("You'll need a Discord bot token.\n\n")
		s.WriteString(labelStyle.Render("Press Enter to continue, Ctrl+C to exit"))

	case stepDiscord:
		s.WriteString(titleStyle.Render("Step 1: Discord Bot Token"))
		s.WriteString("\n\n")
		s.WriteString("  1. Go to " + linkStyle.Render("https://discord.com/developers/applications") + "\n")
		s.WriteString("  2. Create a new application (or select existing)\n")
		s.WriteString("  3. Go to the Bot section and click 'Reset Token'\n")
		s.WriteString("  4. Invite it with the bot and applications.commands scopes\n\n")
		prompt("Paste your Discord token here:", maskToken(m.input))

	case stepGuild:
		s.WriteString(titleStyle.Render("Step 2: Discord Server ID (optional)"))
		s.WriteString("\n\n")
		s.WriteString("Commands registered to one server show up instantly.\n")
		s.WriteString("Enable Developer Mode, right-click the server, Copy Server ID.\n\n")
		prompt("Server ID, or Enter for global commands:", m.input)

	case stepDatabase:
		s.WriteString(titleStyle.Render("Step 3: Database"))
		s.WriteString("\n\n")
		s.WriteString("A postgres:// URL, or a SQLite path.\n\n")
		prompt(fmt.Sprintf("Database URL [%s]:", DefaultDatabaseURL), m.input)

	case stepConfirm, stepSaved:
		s.WriteString(titleStyle.Render("Configuration Complete"))
		s.WriteString("\n\n")
		s.WriteString("  Database:  " + successStyle.Render(m.databaseURL) + "\n")
		s.WriteString("  Discord:   " + successStyle.Render(maskToken(m.discordToken)) + "\n")
		if m.guildID != "" {
			s.WriteString("  Server ID: " + successStyle.Render(m.guildID) + "\n")
		}
		s.WriteString("\n")
		prompt(fmt.Sprintf("Save to %s? [Y/n]:", m.path), m.input)
	}

	s.WriteString("\n")
	return s.String()
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// Run starts the wizard and reports whether a file was written to path.
func Run(path string) (bool, error) {
	p := tea.NewProgram(New(path))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	m := final.(model)
	return m.step == stepSaved, nil
}

// NeedsSetup reports whether path is missing and no token is in the
// environment.
func NeedsSetup(path string) bool {
	if os.Getenv("DISCORD_TOKEN") != "" {
		return false
	}
	_, err := os.Stat(path)
	return errors.Is(err, os.ErrNotExist)
}
