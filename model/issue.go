// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package model

import (
	"encoding/json"
	"errors"
	"io"
)

// ErrTrailingData is returned when a body holds more than one JSON value.
var ErrTrailingData = errors.New("unexpected data after the JSON object")

// Issue is the only record kept by the tracker. Title and Description are
// pointers so that a field the client never sent stays absent instead of
// turning into an empty string.
type Issue struct {
	ID          string  `json:"_id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// IssuePatch is the body accepted by the create and update routes.
// Any client supplied id is not part of it and is therefore ignored.
type IssuePatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (o *Issue) ToJSON() (string, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func IssueFromJSON(data io.Reader) (*Issue, error) {
	var issue Issue
	err := json.NewDecoder(data).Decode(&issue)
	if err != nil {
		return nil, err
	}

	return &issue, nil
}

// IssuePatchFromJSON decodes a request body. An empty body is read as an
// empty patch.
// IssuePatchFromJSON reads exactly one JSON object from data. An empty
// body is an empty patch, anything after the object is an error.
func IssuePatchFromJSON(data io.Reader) (*IssuePatch, error) {
	var patch IssuePatch
	decoder := json.NewDecoder(data)
	err := decoder.Decode(&patch)
	if err == io.EOF {
		return &patch, nil
	}
	if err != nil {
		return nil, err
	}

	var extra json.RawMessage
	if err = decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			err = ErrTrailingData
		}
		return nil, err
	}

	return &patch, nil
}

// ToIssue builds the record a patch describes, without an id.
func (p *IssuePatch) ToIssue() *Issue {
	return &Issue{
		Title:       p.Title,
		Description: p.Description,
	}
}

// GetTitle returns the title, or the empty string when it is absent.
func (o *Issue) GetTitle() string {
	if o == nil || o.Title == nil {
		return ""
	}
	return *o.Title
}

// GetDescription returns the description, or the empty string when it is absent.
func (o *Issue) GetDescription() string {
	if o == nil || o.Description == nil {
		return ""
	}
	return *o.Description
}
