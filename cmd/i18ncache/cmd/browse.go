package cmd

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Shopify/i18n/pkg/cache"
	"github.com/Shopify/i18n/pkg/index"
)

var browseCmd = &cobra.Command{
	Use:   "browse <cache-file>",
	Short: "Interactively browse locales and decoded values",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		snap, _, err := cache.ReadFile(args[0])
		if err != nil {
			printError("read cache", err)
			return err
		}
		ix, err := index.FromSnapshot(snap)
		if err != nil {
			printError("restore index", err)
			return err
		}

		m := newBrowseModel(ix, snap.SchemaKeys)
		_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	},
}

type browseItem struct {
	title string
	desc  string
}

func (i browseItem) Title() string       { return i.title }
func (i browseItem) Description() string { return i.desc }
func (i browseItem) FilterValue() string { return i.title }

type browseModel struct {
	ix      *index.Index
	keys    []string
	locales list.Model
	entries list.Model
	locale  string // empty while picking a locale
}

func newBrowseModel(ix *index.Index, keys []string) *browseModel {
	locales := ix.Locales()
	sort.Strings(locales)

	items := make([]list.Item, len(locales))
	for i, locale := range locales {
		items[i] = browseItem{title: locale, desc: "locale"}
	}

	localeList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	localeList.Title = "Locales"

	entryList := list.New(nil, list.NewDefaultDelegate(), 0, 0)

	return &browseModel{ix: ix, keys: keys, locales: localeList, entries: entryList}
}

func (m *browseModel) Init() tea.Cmd { return nil }

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.locales.SetSize(msg.Width, msg.Height)
		m.entries.SetSize(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.locale != "" {
				m.locale = ""
				return m, nil
			}
			return m, tea.Quit
		case "enter":
			if m.locale == "" {
				if sel, ok := m.locales.SelectedItem().(browseItem); ok {
					m.selectLocale(sel.title)
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.locale == "" {
		m.locales, cmd = m.locales.Update(msg)
	} else {
		m.entries, cmd = m.entries.Update(msg)
	}
	return m, cmd
}

func (m *browseModel) selectLocale(locale string) {
	items := make([]list.Item, 0, len(m.keys))
	for _, key := range m.keys {
		v, ok := m.ix.Lookup(locale, key)
		if !ok {
			continue
		}
		items = append(items, browseItem{title: key, desc: compactValue(v)})
	}
	m.entries.SetItems(items)
	m.entries.Title = fmt.Sprintf("Keys (%s)", locale)
	m.locale = locale
}

func (m *browseModel) View() string {
	if m.locale == "" {
		return m.locales.View()
	}
	return m.entries.View()
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
