package validation

import (
	"strings"
	"unicode/utf8"

	"yappin/pkg/errs"
	"yappin/pkg/models"
)

const (
	MaxYapRunes = 280

	MinUsernameRunes = 3
	MaxUsernameRunes = 20

	MinGroupNameRunes  = 3
	MaxGroupNameRunes  = 50
	MinGroupDescRunes  = 10
	MaxGroupDescRunes  = 500
	MinGroupTopicRunes = 3
	MaxGroupTopicRunes = 50
)

// Username checks the raw (pre-lowercase) name: length and charset.
func Username(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinUsernameRunes || n > MaxUsernameRunes {
		return errs.Validation("username must be %d-%d characters", MinUsernameRunes, MaxUsernameRunes)
	}
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			continue
		}
		return errs.Validation("username may only contain letters, digits and underscore")
	}
	return nil
}

func Email(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return errs.Validation("invalid email address")
	}
	return nil
}

// YapContent enforces the compose rules: at least text or media, text
// capped at MaxYapRunes.
func YapContent(text string, media []models.MediaItem) error {
	if strings.TrimSpace(text) == "" && len(media) == 0 {
		return errs.Validation("yap needs text or media")
	}
	if utf8.RuneCountInString(text) > MaxYapRunes {
		return errs.Validation("yap text must be at most %d characters", MaxYapRunes)
	}
	return nil
}

func runeRange(field, v string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(v))
	if n < min || n > max {
		return errs.Validation("%s must be %d-%d characters", field, min, max)
	}
	return nil
}

func GroupName(v string) error  { return runeRange("group name", v, MinGroupNameRunes, MaxGroupNameRunes) }
func GroupDesc(v string) error  { return runeRange("group description", v, MinGroupDescRunes, MaxGroupDescRunes) }
func GroupTopic(v string) error { return runeRange("group topic", v, MinGroupTopicRunes, MaxGroupTopicRunes) }
