// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

//go:generate mockgen -destination=mocks/store.go -package=mocks github.com/mattermost/mattermost-issuetracker/store Store,IssueStore
