package domain

import "errors"

// 驗證類錯誤不重試，直接回絕且不留任何副作用
// ErrStoreUnavailable 是唯一可重試的錯誤
var (
	// ErrSelfMessage sender 和 receiver 是同一人
	ErrSelfMessage = errors.New("sender and receiver are the same user")
	// ErrInvalidPayload payload 為空或同時帶 text 和 image
	ErrInvalidPayload = errors.New("payload must carry exactly one of text or image")
	// ErrNotFound 查無此訊息
	ErrNotFound = errors.New("message not found")
	// ErrForbidden 訊息不屬於 acting user 的收件匣
	ErrForbidden = errors.New("message is not addressed to acting user")
	// ErrSelfTarget 不能選自己當對話對象
	ErrSelfTarget = errors.New("cannot target self as conversation peer")
	// ErrStoreUnavailable 儲存層暫時不可用，訊息可能未落地
	ErrStoreUnavailable = errors.New("message store unavailable")
)
