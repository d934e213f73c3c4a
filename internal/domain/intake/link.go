package intake

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// LinkBuilder renders the follow-up URL handed to a patient. The URL embeds
// the patient id and is the only credential the follow-up form checks.
type LinkBuilder struct {
	base *url.URL
}

func NewLinkBuilder(publicBaseURL, followUpPath string) (*LinkBuilder, error) {
	u, err := url.Parse(publicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse public base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("public base url %q must be absolute", publicBaseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Trim(followUpPath, "/")
	return &LinkBuilder{base: u}, nil
}

func (b *LinkBuilder) For(patientID int64) string {
	u := *b.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strconv.FormatInt(patientID, 10)
	return u.String()
}
