package cart

import "errors"

var (
	// ErrInvalidItem 商品缺少标识，无法加入购物车
	ErrInvalidItem = errors.New("cart item has no identifier")
	// ErrAddInProgress 已有一次加购在途，本次被拒绝（提示性，非失败）
	ErrAddInProgress = errors.New("another add is already in progress")
	// ErrAlreadyInCart 合并视图中已存在同标识的行（提示性，数量不会被静默累加）
	ErrAlreadyInCart = errors.New("item already in cart")
)

// IsNotice 判断错误是否为提示性拒绝（展示为 info 通知而非错误）
func IsNotice(err error) bool {
	return errors.Is(err, ErrAddInProgress) || errors.Is(err, ErrAlreadyInCart)
}
