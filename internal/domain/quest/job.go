package quest

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jobquest/jobquest/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB
// ══════════════════════════════════════════════════════════════════════════════

// Defaults applied to missing draft fields.
const (
	DefaultTitle       = "Untitled Quest"
	DefaultCompany     = "Unknown Company"
	DefaultLocation    = "Unknown Location"
	DefaultURL         = "#"
	DefaultDescription = "No description provided."
	DefaultRarity      = shared.MinRarity

	// MaxURLLength bounds a posting URL. Longer ones are replaced by DefaultURL.
	MaxURLLength = 2048
)

// Job is an opportunity the user may save or apply to.
type Job struct {
	ID          string        `json:"id" validate:"required"`
	Title       string        `json:"title" validate:"required"`
	Company     string        `json:"company" validate:"required"`
	Location    string        `json:"location" validate:"required"`
	URL         string        `json:"url" validate:"required"`
	Tags        []string      `json:"tags"`
	Description string        `json:"description"`
	Remote      bool          `json:"remote"`
	Rarity      shared.Rarity `json:"rarity" validate:"min=1,max=5"`
	Emoji       string        `json:"emoji,omitempty"`
	Type        string        `json:"type,omitempty"`
	Source      string        `json:"source,omitempty"`
}

// Draft is a partial job as supplied by the user or an external parser.
// Zero values mean "not provided".
type Draft struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	Remote      bool     `json:"remote"`
	Rarity      int      `json:"rarity" validate:"min=0,max=5"`
	Emoji       string   `json:"emoji,omitempty"`
	Type        string   `json:"type,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// Action tells AddJob what to do with the new job.
type Action string

const (
	ActionSave   Action = "save"
	ActionSubmit Action = "submit"
)

// ParseAction validates an action string.
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionSave:
		return ActionSave, nil
	case ActionSubmit:
		return ActionSubmit, nil
	default:
		return "", shared.ErrInvalidAction
	}
}

var validate = validator.New()

// NewJob materialises a draft under id, filling every missing field with its default.
func NewJob(id string, d Draft) (Job, error) {
	if err := validate.Struct(d); err != nil {
		return Job{}, shared.WrapError("quest", "NewJob", shared.ErrInvalidInput, "invalid job draft", err)
	}

	tags := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	url := orDefault(d.URL, DefaultURL)
	if len(url) > MaxURLLength {
		url = DefaultURL
	}

	rarity := shared.Rarity(d.Rarity)
	if rarity == 0 {
		rarity = DefaultRarity
	}

	j := Job{
		ID:          id,
		Title:       orDefault(d.Title, DefaultTitle),
		Company:     orDefault(d.Company, DefaultCompany),
		Location:    orDefault(d.Location, DefaultLocation),
		URL:         url,
		Tags:        tags,
		Description: orDefault(d.Description, DefaultDescription),
		Remote:      d.Remote,
		Rarity:      rarity,
		Emoji:       d.Emoji,
		Type:        d.Type,
		Source:      d.Source,
	}
	if err := j.Validate(); err != nil {
		return Job{}, err
	}
	return j, nil
}

// Validate checks the job's structural invariants.
func (j Job) Validate() error {
	if err := validate.Struct(j); err != nil {
		return shared.WrapError("quest", "Validate", shared.ErrInvalidEntity, "invalid job", err)
	}
	return nil
}

// SearchText is the lowercased title, description and tags joined by spaces.
func (j Job) SearchText() string {
	parts := make([]string, 0, len(j.Tags)+2)
	parts = append(parts, j.Title, j.Description)
	parts = append(parts, j.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

// Mentions reports whether any of the terms appears in the job's search text.
func (j Job) Mentions(terms ...string) bool {
	text := j.SearchText()
	for _, t := range terms {
		if strings.Contains(text, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
