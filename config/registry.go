package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/ebmkit/core"
	"github.com/rushteam/ebmkit/pkg/conv"
	"github.com/rushteam/ebmkit/store"
)

// StoreBuilder 根据 store.options 构建存储后端。
type StoreBuilder func(options map[string]any) (core.Store, error)

var (
	storeBuilders   = make(map[string]StoreBuilder)
	storeBuildersMu sync.RWMutex
)

func init() {
	RegisterStore("memory", buildMemoryStore)
	RegisterStore("redis", buildRedisStore)
}

// RegisterStore 注册一种存储后端，供配置驱动使用。
// 可在其他包的 init 中调用，例如：func init() { config.RegisterStore("etcd", BuildEtcdStore) }
func RegisterStore(typeName string, builder StoreBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	storeBuildersMu.Lock()
	defer storeBuildersMu.Unlock()
	storeBuilders[typeName] = builder
}

// SupportedStores 返回当前已注册的存储类型（排序），用于错误提示与校验。
func SupportedStores() []string {
	storeBuildersMu.RLock()
	defer storeBuildersMu.RUnlock()
	types := make([]string, 0, len(storeBuilders))
	for t := range storeBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsStoreSupported 报告存储类型是否已注册
func IsStoreSupported(typeName string) bool {
	storeBuildersMu.RLock()
	defer storeBuildersMu.RUnlock()
	_, ok := storeBuilders[typeName]
	return ok
}

// BuildStore 按 store 配置构建存储后端
func (c *Config) BuildStore() (core.Store, error) {
	storeBuildersMu.RLock()
	builder, ok := storeBuilders[c.Store.Type]
	storeBuildersMu.RUnlock()
	if !ok {
		return nil, core.InvalidArgument(core.ModuleConfig, "BuildStore",
			fmt.Sprintf("unsupported store type %q (supported: %v)", c.Store.Type, SupportedStores()))
	}
	s, err := builder(c.Store.Options)
	if err != nil {
		return nil, fmt.Errorf("build store %s: %w", c.Store.Type, err)
	}
	return s, nil
}

// ModelRepository 在配置的存储上创建模型仓库
func (c *Config) ModelRepository(s core.Store) *store.ModelRepository {
	return store.NewModelRepository(s, c.Store.KeyPrefix)
}

// ScoreBoard 在配置的存储上创建交互分数缓存；存储不支持有序集合时返回 ErrStoreNotSupported
func (c *Config) ScoreBoard(s core.Store) (*store.ScoreBoard, error) {
	ranked, ok := s.(core.RankedStore)
	if !ok {
		return nil, core.ErrStoreNotSupported
	}
	return store.NewScoreBoard(ranked, c.Store.KeyPrefix), nil
}

func buildMemoryStore(map[string]any) (core.Store, error) {
	return store.NewMemoryStore(), nil
}

func buildRedisStore(options map[string]any) (core.Store, error) {
	addr := conv.ConfigGet(options, "addr", "")
	if addr == "" {
		return nil, core.InvalidArgument(core.ModuleConfig, "BuildStore", "redis store requires options.addr")
	}
	password := conv.ConfigGet(options, "password", "")
	db := conv.ConfigGetInt64(options, "db", 0)
	return store.NewRedisStore(addr, password, int(db))
}
