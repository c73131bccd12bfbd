// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Every backend hands out ObjectID hex strings so ids keep the same shape
// regardless of where the issues live.

func newID() string {
	return primitive.NewObjectID().Hex()
}

func isValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
