package task

import (
	"fmt"
	"testing"
	"time"

	"github.com/hitoshi/recruitboard/internal/model"
)

var baseNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func sentApp(id string, createdAt time.Time) model.Application {
	return model.Application{ID: id, Status: model.ApplicationSent, CreatedAt: createdAt, UpdatedAt: createdAt}
}

func unreadMsg(id string, sentAt time.Time) model.Message {
	return model.Message{ID: id, Status: model.MessageSent, SenderType: model.SenderCandidate, SentAt: sentAt}
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

func appID(a model.Application) string { return a.ID }
func msgID(m model.Message) string     { return m.ID }

func TestClassifyApplications_Boundaries(t *testing.T) {
	tests := []struct {
		name        string
		age         time.Duration
		wantNew     bool
		wantOverdue bool
	}{
		{"作成直後は新着", 0, true, false},
		{"2時間前は新着", 2 * time.Hour, true, false},
		{"24時間の1秒前は新着", 24*time.Hour - time.Second, true, false},
		{"ちょうど24時間はどちらでもない", 24 * time.Hour, false, false},
		{"24時間1秒経過はどちらでもない", 24*time.Hour + time.Second, false, false},
		{"48時間の1秒前はどちらでもない", 48*time.Hour - time.Second, false, false},
		{"ちょうど48時間は要対応", 48 * time.Hour, false, true},
		{"48時間1秒経過は要対応", 48*time.Hour + time.Second, false, true},
		{"50時間前は要対応", 50 * time.Hour, false, true},
		{"未来の時刻は新着", -time.Minute, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fresh, overdue := ClassifyApplications([]model.Application{sentApp("a", baseNow.Add(-tt.age))}, baseNow)
			if got := len(fresh) == 1; got != tt.wantNew {
				t.Errorf("new = %v, want %v", got, tt.wantNew)
			}
			if got := len(overdue) == 1; got != tt.wantOverdue {
				t.Errorf("overdue = %v, want %v", got, tt.wantOverdue)
			}
		})
	}
}

func TestClassifyApplications_OnlySentConsidered(t *testing.T) {
	apps := []model.Application{
		{ID: "responded", Status: model.ApplicationResponded, CreatedAt: baseNow.Add(-time.Hour)},
		{ID: "passed", Status: model.ApplicationPassed, CreatedAt: baseNow.Add(-100 * time.Hour)},
		{ID: "withdrawn", Status: model.ApplicationWithdrawn, CreatedAt: baseNow.Add(-time.Hour)},
		sentApp("sent", baseNow.Add(-time.Hour)),
	}

	fresh, overdue := ClassifyApplications(apps, baseNow)

	if got := ids(fresh, appID); len(got) != 1 || got[0] != "sent" {
		t.Errorf("fresh = %v, want [sent]", got)
	}
	if len(overdue) != 0 {
		t.Errorf("overdue = %v, want empty", ids(overdue, appID))
	}
}

func TestClassifyApplications_TruncatesKeepingOrder(t *testing.T) {
	var apps []model.Application
	for i := 0; i < 8; i++ {
		apps = append(apps, sentApp(fmt.Sprintf("app-%d", i), baseNow.Add(-time.Duration(i+1)*time.Hour)))
	}

	fresh, _ := ClassifyApplications(apps, baseNow)

	want := []string{"app-0", "app-1", "app-2", "app-3", "app-4"}
	got := ids(fresh, appID)
	if len(got) != MaxDisplayItems {
		t.Fatalf("len(fresh) = %d, want %d", len(got), MaxDisplayItems)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fresh[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestClassifyApplications_EmptyInputGivesNonNil(t *testing.T) {
	fresh, overdue := ClassifyApplications(nil, baseNow)
	if fresh == nil || overdue == nil {
		t.Error("expected non-nil empty slices")
	}
}

func TestClassifyMessages_Boundaries(t *testing.T) {
	msgs := []model.Message{
		unreadMsg("10h", baseNow.Add(-10*time.Hour)),
		unreadMsg("just-under-24h", baseNow.Add(-24*time.Hour+time.Second)),
		unreadMsg("just-over-24h", baseNow.Add(-24*time.Hour-time.Second)),
		unreadMsg("47h", baseNow.Add(-47*time.Hour)),
		unreadMsg("just-over-48h", baseNow.Add(-48*time.Hour-time.Second)),
		unreadMsg("5d", baseNow.Add(-120*time.Hour)),
	}

	fresh, overdue := ClassifyMessages(msgs, baseNow)

	if got := fmt.Sprint(ids(fresh, msgID)); got != "[10h just-under-24h]" {
		t.Errorf("fresh = %s", got)
	}
	if got := fmt.Sprint(ids(overdue, msgID)); got != "[just-over-48h 5d]" {
		t.Errorf("overdue = %s", got)
	}
}

func TestClassifyMessages_TruncatesOverdue(t *testing.T) {
	var msgs []model.Message
	for i := 0; i < 7; i++ {
		msgs = append(msgs, unreadMsg(fmt.Sprintf("m-%d", i), baseNow.Add(-time.Duration(49+i)*time.Hour)))
	}

	_, overdue := ClassifyMessages(msgs, baseNow)

	if got := fmt.Sprint(ids(overdue, msgID)); got != "[m-0 m-1 m-2 m-3 m-4]" {
		t.Errorf("overdue = %s", got)
	}
}

func TestClassifyInterviewPending(t *testing.T) {
	if got := ClassifyInterviewPending(nil); got == nil || len(got) != 0 {
		t.Errorf("ClassifyInterviewPending(nil) = %#v, want empty non-nil", got)
	}

	var apps []model.Application
	for i := 0; i < 6; i++ {
		apps = append(apps, model.Application{ID: fmt.Sprintf("r-%d", i), Status: model.ApplicationResponded})
	}
	got := ClassifyInterviewPending(apps)
	if fmt.Sprint(ids(got, appID)) != "[r-0 r-1 r-2 r-3 r-4]" {
		t.Errorf("ClassifyInterviewPending = %v", ids(got, appID))
	}

	got[0].ID = "mutated"
	if apps[0].ID != "r-0" {
		t.Error("ClassifyInterviewPending should not alias the input slice")
	}
}

func TestHasNoJobPostings(t *testing.T) {
	if !HasNoJobPostings(nil) {
		t.Error("HasNoJobPostings(nil) = false, want true")
	}
	if HasNoJobPostings([]model.JobPosting{{ID: "p", Status: model.JobPostingPublished}}) {
		t.Error("HasNoJobPostings with one posting = true, want false")
	}
}
