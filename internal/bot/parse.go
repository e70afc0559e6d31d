package bot

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"website/internal/model"
)

// Accepted layouts for publication dates.
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ParseIDArg extracts a numeric ID from a command argument string.
func ParseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("ID is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}

// ParseTextArgs extracts an ID and the remaining free text.
func ParseTextArgs(args, usage string) (int64, string, error) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 {
		return 0, "", fmt.Errorf("usage: %s", usage)
	}
	id, err := ParseIDArg(parts[0])
	if err != nil {
		return 0, "", err
	}
	text := strings.TrimSpace(parts[1])
	if text == "" {
		return 0, "", fmt.Errorf("usage: %s", usage)
	}
	return id, text, nil
}

// AddArgs holds the parsed arguments of /add.
type AddArgs struct {
	Slug  string
	Title string
}

// ParseAddArgs parses "<slug> <title...>".
func ParseAddArgs(args string) (AddArgs, error) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return AddArgs{}, fmt.Errorf("usage: /add <slug> <title>")
	}
	return AddArgs{Slug: strings.ToLower(parts[0]), Title: strings.TrimSpace(parts[1])}, nil
}

// ParseDate parses a publication date in loc. A bare date means midnight.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range []string{dateTimeLayout, dateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD or YYYY-MM-DD HH:MM", s)
}

// ParseWindowArgs parses "<id> <date>" for /from and /until. With
// allowNever, the word "never" yields a nil date.
func ParseWindowArgs(args string, loc *time.Location, allowNever bool) (int64, *time.Time, error) {
	id, rest, err := ParseTextArgs(args, "<id> <date>")
	if err != nil {
		return 0, nil, err
	}
	if allowNever && strings.EqualFold(rest, "never") {
		return id, nil, nil
	}
	t, err := ParseDate(rest, loc)
	if err != nil {
		return 0, nil, err
	}
	return id, &t, nil
}

// ParseParentArgs parses "<id> <parent_id|none>". The word "none" yields
// a nil parent.
func ParseParentArgs(args string) (int64, *int64, error) {
	id, rest, err := ParseTextArgs(args, "/parent <id> <parent_id|none>")
	if err != nil {
		return 0, nil, err
	}
	if strings.EqualFold(rest, "none") {
		return id, nil, nil
	}
	parent, err := ParseIDArg(rest)
	if err != nil {
		return 0, nil, err
	}
	return id, &parent, nil
}

// BlockArgs holds the parsed arguments of /block.
type BlockArgs struct {
	PageID int64
	Region string
	Type   string
	Data   json.RawMessage
}

// ParseBlockArgs parses "<page_id> <region> <type> [json]". A missing
// payload is an empty object.
func ParseBlockArgs(args string) (BlockArgs, error) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 4)
	if len(parts) < 3 {
		return BlockArgs{}, fmt.Errorf("usage: /block <page_id> <region> <type> <json>")
	}
	id, err := ParseIDArg(parts[0])
	if err != nil {
		return BlockArgs{}, err
	}
	data := json.RawMessage("{}")
	if len(parts) == 4 {
		raw := strings.TrimSpace(parts[3])
		if !json.Valid([]byte(raw)) {
			return BlockArgs{}, fmt.Errorf("block data must be a JSON object")
		}
		data = json.RawMessage(raw)
	}
	return BlockArgs{PageID: id, Region: parts[1], Type: parts[2], Data: data}, nil
}

// ValidatePage checks a page before it is stored.
func ValidatePage(p *model.Page) error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Title, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&p.Slug, validation.Required, validation.RuneLength(1, 100), validation.Match(slugPattern)),
		validation.Field(&p.TemplateKey, validation.Required),
		validation.Field(&p.PublicationEndDate, validation.By(func(any) error {
			if p.PublicationEndDate != nil && !p.PublicationEndDate.After(p.PublicationDate) {
				return fmt.Errorf("must be after the publication date")
			}
			return nil
		})),
	)
}
