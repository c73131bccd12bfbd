// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package model

import (
	"encoding/json"
	"io"
)

// ErrorResponse is the body written for every failed request. The message is
// meant for the end user and never carries debugging information.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (er *ErrorResponse) ToJSON() string {
	b, err := json.Marshal(er)
	if err != nil {
		return ""
	}

	return string(b)
}

// ErrorResponseFromJSON will decode the input and return an ErrorResponse
func ErrorResponseFromJSON(data io.Reader) (*ErrorResponse, error) {
	var er ErrorResponse
	if err := json.NewDecoder(data).Decode(&er); err != nil {
		return nil, err
	}

	return &er, nil
}
