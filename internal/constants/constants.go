package constants

// 购物车行来源常量
const (
	// CartSourceLive 仅存在于会话内存、尚未提交到订单平台的行
	CartSourceLive = "live"
	// CartSourceDraft 订单平台已确认的草稿订单行
	CartSourceDraft = "draft"
)

// 购物车数量边界
const (
	CartQtyMin = 1
	CartQtyMax = 9999
)

// 草稿订单状态常量（订单平台侧）
const (
	OrderStatusDraft     = "Draft"
	OrderStatusActivated = "Activated"
)

// 商品排序常量
const (
	ProductSortFieldName  = "Name"
	ProductSortFieldPrice = "UnitPrice"
	SortDirectionAsc      = "ASC"
	SortDirectionDesc     = "DESC"
)

// 会话存储键前缀
const (
	SessionCartKeyPrefix    = "cart"
	SessionAccountKeyPrefix = "account"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskOrderDocument = "order:document"
)
