package entity

import "strings"

// LinkConfig describes how wiki permalinks are assembled.
// URLs are built as BaseURL + URLEnding + page name, and action links append
// "&" + the action suffix.
type LinkConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	URLEnding      string `yaml:"url_ending" envconfig:"URL_ENDING"`
	UserPagePrefix string `yaml:"user_page_prefix" envconfig:"USER_PAGE_PREFIX"`
	EditSuffix     string `yaml:"edit_suffix" envconfig:"EDIT_SUFFIX"`
	DeleteSuffix   string `yaml:"delete_suffix" envconfig:"DELETE_SUFFIX"`
	HistorySuffix  string `yaml:"history_suffix" envconfig:"HISTORY_SUFFIX"`
	BlockListPage  string `yaml:"block_list_page" envconfig:"BLOCK_LIST_PAGE"`
}

// DefaultLinkConfig returns the MediaWiki defaults for everything but BaseURL.
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{
		URLEnding:      "index.php?title=",
		UserPagePrefix: "User:",
		EditSuffix:     "action=edit",
		DeleteSuffix:   "action=delete",
		HistorySuffix:  "action=history",
		BlockListPage:  "Special:BlockList",
	}
}

// Linker renders chat links for wiki objects.
type Linker interface {
	User(u UserRef) string
	Article(a EntityRef) string
	Title(t EntityRef) string
	BlockList() string
}

// WikiLinker renders Slack style links, <url|text>, for a MediaWiki site.
type WikiLinker struct {
	cfg LinkConfig
}

var _ Linker = (*WikiLinker)(nil)

// NewWikiLinker creates a linker for the given site layout.
func NewWikiLinker(cfg LinkConfig) *WikiLinker {
	return &WikiLinker{cfg: cfg}
}

// User links to the user page of u.
func (l *WikiLinker) User(u UserRef) string {
	return link(l.pageURL(l.cfg.UserPagePrefix+u.Name), u.Name)
}

// Article links to the page itself.
func (l *WikiLinker) Article(a EntityRef) string {
	return link(l.pageURL(a.FullName), a.FullName)
}

// Title links to the page followed by its edit, delete and history actions.
func (l *WikiLinker) Title(t EntityRef) string {
	base := l.pageURL(t.FullName)
	return link(base, t.FullName) + " (" +
		link(base+"&"+l.cfg.EditSuffix, "edit") + " | " +
		link(base+"&"+l.cfg.DeleteSuffix, "delete") + " | " +
		link(base+"&"+l.cfg.HistorySuffix, "history") + ")"
}

// BlockList links to the list of active blocks.
func (l *WikiLinker) BlockList() string {
	return link(l.pageURL(l.cfg.BlockListPage), "List of all blocks")
}

func (l *WikiLinker) pageURL(name string) string {
	return l.cfg.BaseURL + l.cfg.URLEnding + strings.ReplaceAll(name, " ", "_")
}

var linkTextEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func link(url, text string) string {
	return "<" + url + "|" + linkTextEscaper.Replace(text) + ">"
}
