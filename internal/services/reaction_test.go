package services

import (
	"errors"
	"testing"

	"campuslink/internal/db"
	"campuslink/internal/models"
)

// 帖子反应的完整状态机：创建、取消、切换，评分全程派生
func TestTogglePostReactionSequence(t *testing.T) {
	setupTestDB(t)

	userA := createTestUser(t, "a@campus.edu", "Ada", "Lovelace")
	userB := createTestUser(t, "b@campus.edu", "Ben", "Turing")
	post := createTestPost(t, &userA.ID, "Exam schedule")

	steps := []struct {
		userID     uint
		kind       string
		wantAction string
		wantRating int
	}{
		{userA.ID, models.ReactionUpvote, ReactionCreated, 1},
		{userA.ID, models.ReactionUpvote, ReactionRemoved, 0},
		{userA.ID, models.ReactionDownvote, ReactionCreated, -1},
		{userB.ID, models.ReactionDownvote, ReactionCreated, -2},
		{userB.ID, models.ReactionUpvote, ReactionUpdated, 0},
	}

	for i, step := range steps {
		action, err := TogglePostReaction(post.ID, step.userID, step.kind)
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		if action != step.wantAction {
			t.Errorf("step %d: expected action %s, got %s", i, step.wantAction, action)
		}
		if rating := PostRating(post.ID); rating != step.wantRating {
			t.Errorf("step %d: expected rating %d, got %d", i, step.wantRating, rating)
		}

		// 每个 (post, user) 对始终至多一行
		var rows int64
		db.DB.Model(&models.PostReaction{}).
			Where("post_id = ? AND user_id = ?", post.ID, step.userID).
			Count(&rows)
		if rows > 1 {
			t.Fatalf("step %d: found %d reaction rows for one (post, user) pair", i, rows)
		}
	}
}

// 重复同样手势的开关语义：created -> removed -> created
func TestTogglePostReactionToggleOff(t *testing.T) {
	setupTestDB(t)

	user := createTestUser(t, "a@campus.edu", "Ada", "Lovelace")
	post := createTestPost(t, &user.ID, "Library hours")

	want := []string{ReactionCreated, ReactionRemoved, ReactionCreated}
	for i, expected := range want {
		action, err := TogglePostReaction(post.ID, user.ID, models.ReactionUpvote)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if action != expected {
			t.Errorf("call %d: expected %s, got %s", i, expected, action)
		}
	}
}

func TestTogglePostReactionInvalidKind(t *testing.T) {
	setupTestDB(t)

	user := createTestUser(t, "a@campus.edu", "Ada", "Lovelace")
	post := createTestPost(t, &user.ID, "Lost keys")

	if _, err := TogglePostReaction(post.ID, user.ID, "sideways"); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("expected ErrInvalidKind, got %v", err)
	}
}

func TestTogglePostReactionMissingPost(t *testing.T) {
	setupTestDB(t)

	user := createTestUser(t, "a@campus.edu", "Ada", "Lovelace")

	if _, err := TogglePostReaction(9999, user.ID, models.ReactionUpvote); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// 评分为零反应时精确为 0，3 赞 1 踩时精确为 2
func TestPostRatingAggregate(t *testing.T) {
	setupTestDB(t)

	author := createTestUser(t, "author@campus.edu", "Ada", "Lovelace")
	post := createTestPost(t, &author.ID, "Mensa review")

	if rating := PostRating(post.ID); rating != 0 {
		t.Fatalf("expected rating 0 with no reactions, got %d", rating)
	}

	for i, kind := range []string{
		models.ReactionUpvote, models.ReactionUpvote, models.ReactionUpvote, models.ReactionDownvote,
	} {
		voter := createTestUser(t, "voter"+string(rune('a'+i))+"@campus.edu", "V", "Oter")
		if _, err := TogglePostReaction(post.ID, voter.ID, kind); err != nil {
			t.Fatalf("vote %d failed: %v", i, err)
		}
	}

	if rating := PostRating(post.ID); rating != 2 {
		t.Errorf("expected rating 2 for 3 upvotes and 1 downvote, got %d", rating)
	}
}

func TestToggleCommentReaction(t *testing.T) {
	setupTestDB(t)

	author := createTestUser(t, "author@campus.edu", "Ada", "Lovelace")
	voter := createTestUser(t, "voter@campus.edu", "Ben", "Turing")
	post := createTestPost(t, &author.ID, "Any advice?")
	comment := createTestComment(t, post.ID, nil, &author.ID, "Try the archive", false)

	action, err := ToggleCommentReaction(comment.ID, voter.ID, models.ReactionUpvote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != ReactionCreated {
		t.Errorf("expected created, got %s", action)
	}
	if rating := CommentRating(comment.ID); rating != 1 {
		t.Errorf("expected rating 1, got %d", rating)
	}

	// 切换到相反反应，原地更新，行数不变
	action, err = ToggleCommentReaction(comment.ID, voter.ID, models.ReactionDownvote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != ReactionUpdated {
		t.Errorf("expected updated, got %s", action)
	}
	var rows int64
	db.DB.Model(&models.CommentReaction{}).Where("comment_id = ?", comment.ID).Count(&rows)
	if rows != 1 {
		t.Errorf("expected exactly 1 reaction row, got %d", rows)
	}
	if rating := CommentRating(comment.ID); rating != -1 {
		t.Errorf("expected rating -1, got %d", rating)
	}
}

func TestPostReactionOf(t *testing.T) {
	setupTestDB(t)

	user := createTestUser(t, "a@campus.edu", "Ada", "Lovelace")
	post := createTestPost(t, &user.ID, "Free food today")

	if kind := PostReactionOf(post.ID, user.ID); kind != "" {
		t.Errorf("expected no reaction, got %q", kind)
	}

	if _, err := TogglePostReaction(post.ID, user.ID, models.ReactionDownvote); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if kind := PostReactionOf(post.ID, user.ID); kind != models.ReactionDownvote {
		t.Errorf("expected downvote, got %q", kind)
	}
}

// 帖子下架后评论不再接受反应
func TestToggleCommentReactionInactivePost(t *testing.T) {
	setupTestDB(t)

	user := createTestUser(t, "a@campus.edu", "Ada", "Lovelace")
	post := createTestPost(t, &user.ID, "Old thread")
	comment := createTestComment(t, post.ID, nil, &user.ID, "still here", false)

	if err := db.DB.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("is_active", false).Error; err != nil {
		t.Fatalf("failed to deactivate post: %v", err)
	}

	if _, err := ToggleCommentReaction(comment.ID, user.ID, models.ReactionUpvote); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive post, got %v", err)
	}

	var rows int64
	db.DB.Model(&models.CommentReaction{}).Where("comment_id = ?", comment.ID).Count(&rows)
	if rows != 0 {
		t.Errorf("expected no reaction rows, got %d", rows)
	}
}
