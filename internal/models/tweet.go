// Package models defines the data shapes shared across threatfeed.
package models

import "time"

// TweetDocument is the persisted shape of a collected tweet.
// Uniqueness is enforced on tweet.id; re-inserting the same tweet is a no-op.
type TweetDocument struct {
	Tweet Tweet `bson:"tweet" json:"tweet"`
	User  User  `bson:"user" json:"user"`
}

// Tweet holds the tweet payload. Embedding is absent at ingestion time and
// backfilled exactly once; it is never rewritten afterwards.
type Tweet struct {
	ID        string       `bson:"id" json:"id"`
	Text      string       `bson:"text" json:"text"`
	Embedding []float32    `bson:"embedding,omitempty" json:"embedding,omitempty"`
	CreatedAt time.Time    `bson:"created_at" json:"created_at"`
	Metrics   TweetMetrics `bson:"metrics" json:"metrics"`
}

// TweetMetrics carries the public engagement counters.
type TweetMetrics struct {
	Retweets int `bson:"retweet_count" json:"retweet_count"`
	Replies  int `bson:"reply_count" json:"reply_count"`
	Likes    int `bson:"like_count" json:"like_count"`
	Quotes   int `bson:"quote_count" json:"quote_count"`
}

// User is the tweet author.
type User struct {
	ID       string `bson:"id" json:"id"`
	Username string `bson:"username" json:"username"`
	Name     string `bson:"name" json:"name"`
}

// ScoredTweet is a single similarity-search hit. Only the text is surfaced
// to the chat layer; the score is used for ordering and the search command.
type ScoredTweet struct {
	Text  string  `bson:"text" json:"text"`
	Score float64 `bson:"score" json:"score"`
}
