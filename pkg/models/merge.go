package models

// MergeOptions controls what a merge carries over from source to target.
type MergeOptions struct {
	MigrateVotes    bool `json:"migrate_votes"`
	MigrateComments bool `json:"migrate_comments"`
}

// MergeRequest is the payload for folding a duplicate into a target.
type MergeRequest struct {
	TargetID        string `json:"target_id" validate:"required,uuid4"`
	MigrateVotes    bool   `json:"migrate_votes"`
	MigrateComments bool   `json:"migrate_comments"`
}

// MergeResult summarizes a completed merge.
type MergeResult struct {
	SourceID         string `json:"source_id"`
	TargetID         string `json:"target_id"`
	VotesMigrated    int    `json:"votes_migrated"`
	VotesDiscarded   int    `json:"votes_discarded"`
	CommentsMigrated int    `json:"comments_migrated"`
	TargetUpvotes    int    `json:"target_upvotes"`
	TargetLikes      int    `json:"target_likes"`
}
