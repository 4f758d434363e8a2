package contexts

import (
	"context"
	"testing"

	"github.com/counselhub/counselhub/internal/objects"
)

func TestWithCounselor(t *testing.T) {
	ctx := t.Context()
	counselor := &objects.Counselor{
		ID:          "c-1",
		Email:       "morgan@example.edu",
		DisplayName: "Morgan Reyes",
		SchoolID:    "school-42",
	}

	newCtx := WithCounselor(ctx, counselor)
	if newCtx == ctx {
		t.Error("WithCounselor should return a new context")
	}

	retrieved, ok := GetCounselor(newCtx)
	if !ok {
		t.Error("GetCounselor should return true for existing counselor")
	}

	if retrieved == nil {
		t.Fatal("GetCounselor should return non-nil counselor")
	}

	if retrieved.ID != counselor.ID {
		t.Errorf("expected ID %s, got %s", counselor.ID, retrieved.ID)
	}

	if retrieved.SchoolID != counselor.SchoolID {
		t.Errorf("expected SchoolID %s, got %s", counselor.SchoolID, retrieved.SchoolID)
	}
}

func TestGetCounselor(t *testing.T) {
	ctx := t.Context()

	counselor, ok := GetCounselor(ctx)
	if ok {
		t.Error("GetCounselor should return false for empty context")
	}

	if counselor != nil {
		t.Error("GetCounselor should return nil counselor for empty context")
	}
}

func TestGetSchoolID(t *testing.T) {
	ctx := t.Context()

	if _, ok := GetSchoolID(ctx); ok {
		t.Error("GetSchoolID should return false for empty context")
	}

	// Explicit school id wins.
	withSchool := WithSchoolID(ctx, "school-7")

	schoolID, ok := GetSchoolID(withSchool)
	if !ok || schoolID != "school-7" {
		t.Errorf("expected school-7, got %q (ok=%v)", schoolID, ok)
	}

	// Falls back to the counselor's school.
	withCounselor := WithCounselor(t.Context(), &objects.Counselor{
		ID:       "c-2",
		SchoolID: "school-9",
	})

	schoolID, ok = GetSchoolID(withCounselor)
	if !ok || schoolID != "school-9" {
		t.Errorf("expected school-9, got %q (ok=%v)", schoolID, ok)
	}
}

func TestWithInviteToken(t *testing.T) {
	ctx := t.Context()

	if _, ok := GetInviteToken(ctx); ok {
		t.Error("GetInviteToken should return false for empty context")
	}

	newCtx := WithInviteToken(ctx, "tok-abc")

	token, ok := GetInviteToken(newCtx)
	if !ok {
		t.Error("GetInviteToken should return true for stored token")
	}

	if token != "tok-abc" {
		t.Errorf("expected tok-abc, got %s", token)
	}
}

func TestContainerReuse(t *testing.T) {
	// Values stored after the container exists stay visible through the
	// original context value.
	ctx := WithTraceID(context.Background(), "ch-trace-1")
	ctx2 := WithOperationName(ctx, "ListStudents")

	if name, ok := GetOperationName(ctx2); !ok || name != "ListStudents" {
		t.Errorf("expected ListStudents, got %q (ok=%v)", name, ok)
	}

	if traceID, ok := GetTraceID(ctx2); !ok || traceID != "ch-trace-1" {
		t.Errorf("expected ch-trace-1, got %q (ok=%v)", traceID, ok)
	}
}
