package core

import "context"

// Store 是存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 使用场景：
//   - 训练产出的模型（各组合的张量、指标、轮数）持久化
//   - 交互排序结果缓存
//
// 实现：
//   - store.MemoryStore 实现此接口
//   - store.RedisStore 实现此接口
type Store interface {
	// Name 返回存储后端名称（用于日志）
	Name() string

	// Get 读取单个 key 的值
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value，ttl 单位为秒
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// BatchGet 批量读取
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// BatchSet 批量写入
	BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error

	// Close 关闭连接/释放资源
	Close() error
}

// RankedStore 扩展 Store，提供有序集合操作（Redis ZSet 语义），用于缓存交互分数排行。
type RankedStore interface {
	Store

	// ZAdd 写入成员及其分数（已存在则覆盖分数）
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRevRange 按分数降序返回 [start, stop] 名次的成员，负数名次从末尾倒数（-1 为最后一个）；
	// 同分成员按成员名逆字典序排列
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// ZScore 返回成员的分数，不存在返回 ErrStoreNotFound
	ZScore(ctx context.Context, key string, member string) (float64, error)
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "operation not supported")
)

// IsStoreNotFound 检查错误是否为存储模块的 key 不存在
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}
