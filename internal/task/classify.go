package task

import (
	"time"

	"github.com/hitoshi/recruitboard/internal/model"
)

const (
	// NewThreshold 未満の経過時間は「新着」。
	NewThreshold = 24 * time.Hour
	// OverdueThreshold 以上の経過時間は「要対応」。
	// NewThreshold 以上 OverdueThreshold 未満はどちらにも分類しない。
	OverdueThreshold = 48 * time.Hour
	// InterviewResultThreshold はRESPONDEDのまま放置された応募を面接結果未登録とみなす経過時間。
	InterviewResultThreshold = 72 * time.Hour
	// MaxDisplayItems は各バケットに含める最大件数。
	MaxDisplayItems = 5
)

// bucket は経過時間による分類結果。
type bucket int

const (
	bucketQuiet bucket = iota
	bucketNew
	bucketOverdue
)

// classifyAge は基準時刻tからnowまでの経過時間でバケットを決める。
// 未来の時刻（時計ずれ）は新着として扱う。
func classifyAge(t, now time.Time) bucket {
	age := now.Sub(t)
	switch {
	case age < NewThreshold:
		return bucketNew
	case age >= OverdueThreshold:
		return bucketOverdue
	default:
		return bucketQuiet
	}
}

// ClassifyApplications はSENTの応募を新着と要対応に振り分ける。
// 入力順（created_at降順）を保ち、それぞれ最大 MaxDisplayItems 件に切り詰める。
func ClassifyApplications(apps []model.Application, now time.Time) (fresh, overdue []model.Application) {
	fresh = []model.Application{}
	overdue = []model.Application{}
	for _, a := range apps {
		if a.Status != model.ApplicationSent {
			continue
		}
		switch classifyAge(a.CreatedAt, now) {
		case bucketNew:
			fresh = append(fresh, a)
		case bucketOverdue:
			overdue = append(overdue, a)
		}
	}
	return capItems(fresh), capItems(overdue)
}

// ClassifyMessages は未読の候補者メッセージを送信日時で新着と要対応に振り分ける。
func ClassifyMessages(msgs []model.Message, now time.Time) (fresh, overdue []model.Message) {
	fresh = []model.Message{}
	overdue = []model.Message{}
	for _, m := range msgs {
		switch classifyAge(m.SentAt, now) {
		case bucketNew:
			fresh = append(fresh, m)
		case bucketOverdue:
			overdue = append(overdue, m)
		}
	}
	return capItems(fresh), capItems(overdue)
}

// ClassifyInterviewPending は面接結果未登録の応募を先頭から最大件数まで返す。
// 経過時間の判定は取得時のクエリで済んでいる。
func ClassifyInterviewPending(apps []model.Application) []model.Application {
	out := make([]model.Application, 0, len(apps))
	return capItems(append(out, apps...))
}

// HasNoJobPostings は掲載中の求人が1件もない場合にtrueを返す。
func HasNoJobPostings(postings []model.JobPosting) bool {
	return len(postings) == 0
}

func capItems[T any](items []T) []T {
	if len(items) > MaxDisplayItems {
		return items[:MaxDisplayItems]
	}
	return items
}
