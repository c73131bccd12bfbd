// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattermost/mattermost-issuetracker/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// issueDocument is the stored shape of an issue. Absent fields are left out
// of the document.
type issueDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       *string            `bson:"title,omitempty"`
	Description *string            `bson:"description,omitempty"`
}

func (d *issueDocument) toModel() *model.Issue {
	return &model.Issue{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
	}
}

type MongoIssueStore struct {
	*MongoStore
}

func NewMongoIssueStore(mongoStore *MongoStore) IssueStore {
	return &MongoIssueStore{mongoStore}
}

func (s MongoIssueStore) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	doc := &issueDocument{
		ID:          primitive.NewObjectID(),
		Title:       issue.Title,
		Description: issue.Description,
	}
	if _, err := s.collection(issuesCollection).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("could not insert issue: %w", err)
	}
	return doc.toModel(), nil
}

func (s MongoIssueStore) Get(ctx context.Context, id string) (*model.Issue, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc issueDocument
	if err := s.collection(issuesCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not get issue: id=%v, err=%w", id, err)
	}
	return doc.toModel(), nil
}

func (s MongoIssueStore) List(ctx context.Context) ([]*model.Issue, error) {
	// ObjectIDs grow with creation time, so sorting by _id keeps insertion order.
	cursor, err := s.collection(issuesCollection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("could not list issues: %w", err)
	}

	var docs []issueDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("could not read issues: %w", err)
	}

	issues := make([]*model.Issue, 0, len(docs))
	for i := range docs {
		issues = append(issues, docs[i].toModel())
	}
	return issues, nil
}

func (s MongoIssueStore) Update(ctx context.Context, id string, issue *model.Issue) (*model.Issue, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	replacement := &issueDocument{
		ID:          oid,
		Title:       issue.Title,
		Description: issue.Description,
	}
	opts := options.FindOneAndReplace().SetReturnDocument(options.After)

	var doc issueDocument
	if err := s.collection(issuesCollection).FindOneAndReplace(ctx, bson.M{"_id": oid}, replacement, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not update issue: id=%v, err=%w", id, err)
	}
	return doc.toModel(), nil
}

func (s MongoIssueStore) Delete(ctx context.Context, id string) (*model.Issue, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc issueDocument
	if err := s.collection(issuesCollection).FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not delete issue: id=%v, err=%w", id, err)
	}
	return doc.toModel(), nil
}
