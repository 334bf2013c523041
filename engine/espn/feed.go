// Package espn decodes ESPN site API payloads (scoreboard events and news
// articles) into parsed fields ready for card synthesis.
//
// Decoding is lenient: a missing or mistyped nested value leaves the
// corresponding field empty instead of failing the whole record.
package espn

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Text is a scalar that accepts JSON strings, numbers and booleans. Null,
// objects and arrays decode to the empty string.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*t = ""
			return nil
		}
		*t = Text(s)
	case 't', 'f':
		*t = Text(strconv.FormatBool(b[0] == 't'))
	case 'n', '{', '[':
		*t = ""
	default:
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Event is one scoreboard entry.
type Event struct {
	ID           Text          `json:"id"`
	Name         Text          `json:"name"`
	Date         Text          `json:"date"`
	Status       EventStatus   `json:"status"`
	Competitions []Competition `json:"competitions"`
	Weather      Weather       `json:"weather"`
	Broadcast    Text          `json:"broadcast"`
}

type EventStatus struct {
	Type StatusType `json:"type"`
}

// StatusType carries the lifecycle state ("pre", "in", "post") and a
// free-text detail such as "Q3 4:12".
type StatusType struct {
	State  Text `json:"state"`
	Detail Text `json:"detail"`
}

type Competition struct {
	Competitors []Competitor     `json:"competitors"`
	Venue       Venue            `json:"venue"`
	Odds        []Odds           `json:"odds"`
	Leaders     []LeaderCategory `json:"leaders"`
	Broadcast   Text             `json:"broadcast"`
}

type Competitor struct {
	HomeAway   Text             `json:"homeAway"`
	Team       Team             `json:"team"`
	Score      Text             `json:"score"`
	Leaders    []LeaderCategory `json:"leaders"`
	Statistics []Statistic      `json:"statistics"`
}

type Team struct {
	DisplayName  Text `json:"displayName"`
	Abbreviation Text `json:"abbreviation"`
}

// LeaderCategory is one statistical category ("Points", "Passing Yards")
// with its ranked leaders.
type LeaderCategory struct {
	Name        Text      `json:"name"`
	DisplayName Text      `json:"displayName"`
	Leaders     []*Leader `json:"leaders"`
}

type Leader struct {
	DisplayValue Text    `json:"displayValue"`
	Athlete      Athlete `json:"athlete"`
}

type Athlete struct {
	DisplayName Text `json:"displayName"`
}

type Statistic struct {
	Name         Text `json:"name"`
	Abbreviation Text `json:"abbreviation"`
	DisplayValue Text `json:"displayValue"`
}

type Venue struct {
	FullName Text    `json:"fullName"`
	Address  Address `json:"address"`
}

type Address struct {
	City  Text `json:"city"`
	State Text `json:"state"`
}

type Odds struct {
	Details Text `json:"details"`
}

type Weather struct {
	DisplayValue Text `json:"displayValue"`
}

// Article is one news feed entry.
type Article struct {
	ID          Text       `json:"id"`
	Headline    Text       `json:"headline"`
	Description Text       `json:"description"`
	Published   Text       `json:"published"`
	Categories  []Category `json:"categories"`
}

// Category tags an article with a team, athlete or guid. Type is the
// discriminator.
type Category struct {
	Type        Text `json:"type"`
	Description Text `json:"description"`
	GUID        Text `json:"guid"`
}
