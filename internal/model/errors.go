package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, recruiting, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized            = "UNAUTHORIZED"
	ErrCodeForbidden               = "FORBIDDEN"
	ErrCodeCompanyUserNotFound     = "COMPANY_USER_NOT_FOUND"
	ErrCodeMessageNotFound         = "MESSAGE_NOT_FOUND"
	ErrCodeApplicationNotFound     = "APPLICATION_NOT_FOUND"
	ErrCodeInvalidApplicationState = "INVALID_APPLICATION_STATE"
	ErrCodeInvalidInterviewResult  = "INVALID_INTERVIEW_RESULT"
	ErrCodeUnknownSettingKey       = "UNKNOWN_SETTING_KEY"
	ErrCodeInvalidSettingValue     = "INVALID_SETTING_VALUE"
	ErrCodeSettingNotFound         = "SETTING_NOT_FOUND"
	ErrCodeInvalidRequest          = "INVALID_REQUEST"
	ErrCodeCSRFTokenInvalid        = "CSRF_TOKEN_INVALID"
	ErrCodeRateLimitExceeded       = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal                = "INTERNAL_ERROR"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者権限を持つ担当者に依頼してください。",
	}
}

// NewCompanyUserNotFoundError は企業担当者が見つからない場合のエラーを生成する。
func NewCompanyUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeCompanyUserNotFound,
		Message:  "企業担当者アカウントが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewMessageNotFoundError はメッセージ未検出エラーを生成する。
// 閲覧権限のないグループのメッセージも同じエラーとして扱う。
func NewMessageNotFoundError(messageID string) *APIError {
	return &APIError{
		Code:     ErrCodeMessageNotFound,
		Message:  fmt.Sprintf("指定されたメッセージが見つかりません: %s", messageID),
		Category: "recruiting",
		Action:   "メッセージIDを確認してください。",
	}
}

// NewApplicationNotFoundError は応募未検出エラーを生成する。
// 閲覧権限のないグループの応募も同じエラーとして扱う。
func NewApplicationNotFoundError(applicationID string) *APIError {
	return &APIError{
		Code:     ErrCodeApplicationNotFound,
		Message:  fmt.Sprintf("指定された応募が見つかりません: %s", applicationID),
		Category: "recruiting",
		Action:   "応募IDを確認してください。",
	}
}

// NewInvalidApplicationStateError は応募の状態が操作の前提を満たさない場合のエラーを生成する。
func NewInvalidApplicationStateError(current, required ApplicationStatus) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidApplicationState,
		Message:  fmt.Sprintf("応募の状態が %s のため操作できません（%s である必要があります）。", current, required),
		Category: "recruiting",
		Action:   "画面を再読み込みして最新の状態を確認してください。",
	}
}

// NewInvalidInterviewResultError は面接結果の値が不正な場合のエラーを生成する。
func NewInvalidInterviewResultError(result string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInterviewResult,
		Message:  fmt.Sprintf("無効な面接結果です: %s", result),
		Category: "validation",
		Action:   "面接結果には PASSED または REJECTED を指定してください。",
	}
}

// NewUnknownSettingKeyError は未定義の設定キーが指定された場合のエラーを生成する。
func NewUnknownSettingKeyError(key string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownSettingKey,
		Message:  fmt.Sprintf("未定義の設定キーです: %s", key),
		Category: "validation",
		Action:   "設定キーを確認してください。",
	}
}

// NewInvalidSettingValueError は設定値が不正な場合のエラーを生成する。
func NewInvalidSettingValueError(key, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSettingValue,
		Message:  fmt.Sprintf("設定値が不正です（%s）: %s", key, reason),
		Category: "validation",
		Action:   "入力値を確認してください。",
	}
}

// NewSettingNotFoundError は設定が未登録の場合のエラーを生成する。
func NewSettingNotFoundError(key string) *APIError {
	return &APIError{
		Code:     ErrCodeSettingNotFound,
		Message:  fmt.Sprintf("設定が登録されていません: %s", key),
		Category: "validation",
		Action:   "設定を登録してください。",
	}
}

// NewInvalidRequestError はリクエストボディが解釈できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストの形式が不正です。",
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewCSRFTokenInvalidError はCSRFトークン検証に失敗した場合のエラーを生成する。
func NewCSRFTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFTokenInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "auth",
		Action:   "画面を再読み込みしてから再度お試しください。",
	}
}

// NewRateLimitExceededError はレート制限超過エラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
