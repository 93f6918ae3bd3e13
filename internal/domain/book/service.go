package book

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Service 图书领域服务接口（目录管理）
// 设计说明：
// 1. 封装ISBN校验、重复检查、乐观锁保存等业务规则
// 2. 不依赖具体的Repository/Cache实现（依赖倒置）
// 3. 库存变化不经过这里，只能通过交易流程
type Service interface {
	// PublishBook 上架新书
	// 业务规则：ISBN合法且不重复，价格>0，库存和最低库存>=0
	PublishBook(ctx context.Context, params PublishParams) (*Book, error)

	// GetBook 读穿缓存获取图书
	GetBook(ctx context.Context, id uint) (*Book, error)

	// UpdateBook 修改图书信息/价格/最低库存（乐观锁）
	UpdateBook(ctx context.Context, params UpdateParams) (*Book, error)

	// Deactivate 下架（软删除）
	Deactivate(ctx context.Context, id uint, version int) (*Book, error)

	// Restore 恢复上架
	Restore(ctx context.Context, id uint, version int) (*Book, error)

	// ListBooks 分页查询
	ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// ListLowStock 低库存图书
	ListLowStock(ctx context.Context) ([]*Book, error)

	// Stats 目录统计（图书数量、库存合计、库存总价值）
	Stats(ctx context.Context) (*Stats, error)
}

// PublishParams 上架参数
type PublishParams struct {
	ISBN          string
	Title         string
	Author        string
	Publisher     string
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
	InitialStock  int
	MinStock      int
}

// UpdateParams 修改参数，nil/空串表示不修改
type UpdateParams struct {
	ID            uint
	Version       int
	Title         string
	Author        string
	Publisher     string
	PurchasePrice *decimal.Decimal
	SellingPrice  *decimal.Decimal
	MinStock      *int
}

type service struct {
	repo  Repository
	cache Cache
}

// NewService 创建图书领域服务
func NewService(repo Repository, cache Cache) Service {
	return &service{repo: repo, cache: cache}
}

// PublishBook 上架新书
func (s *service) PublishBook(ctx context.Context, params PublishParams) (*Book, error) {
	// 1. ISBN格式校验
	isbn := normalizeISBN(params.ISBN)
	if !isValidISBN(isbn) {
		return nil, ErrInvalidISBN
	}

	// 2. 检查ISBN是否已存在
	existing, err := s.repo.FindByISBN(ctx, isbn)
	if err == nil && existing != nil {
		return nil, ErrISBNDuplicate
	}
	if err != nil && !errors.Is(err, ErrBookNotFound) {
		return nil, err
	}

	// 3. 创建实体（价格、库存校验）
	b, err := NewBook(isbn, params.Title, params.Author, params.Publisher,
		params.PurchasePrice, params.SellingPrice, params.InitialStock, params.MinStock)
	if err != nil {
		return nil, err
	}

	// 4. 持久化（并发重复由唯一索引兜底）
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBook 读穿缓存获取图书
func (s *service) GetBook(ctx context.Context, id uint) (*Book, error) {
	return s.cache.Get(ctx, id)
}

// UpdateBook 修改图书
func (s *service) UpdateBook(ctx context.Context, params UpdateParams) (*Book, error) {
	b, err := s.loadForUpdate(ctx, params.ID, params.Version)
	if err != nil {
		return nil, err
	}

	b.UpdateInfo(params.Title, params.Author, params.Publisher)

	if params.PurchasePrice != nil || params.SellingPrice != nil {
		purchase, selling := b.PurchasePrice, b.SellingPrice
		if params.PurchasePrice != nil {
			purchase = *params.PurchasePrice
		}
		if params.SellingPrice != nil {
			selling = *params.SellingPrice
		}
		if err := b.UpdatePrices(purchase, selling); err != nil {
			return nil, err
		}
	}

	if params.MinStock != nil {
		if err := b.UpdateMinStock(*params.MinStock); err != nil {
			return nil, err
		}
	}

	return s.save(ctx, b)
}

// Deactivate 下架
func (s *service) Deactivate(ctx context.Context, id uint, version int) (*Book, error) {
	b, err := s.loadForUpdate(ctx, id, version)
	if err != nil {
		return nil, err
	}
	b.Deactivate()
	return s.save(ctx, b)
}

// Restore 恢复上架
func (s *service) Restore(ctx context.Context, id uint, version int) (*Book, error) {
	b, err := s.loadForUpdate(ctx, id, version)
	if err != nil {
		return nil, err
	}
	b.Restore()
	return s.save(ctx, b)
}

// ListBooks 分页查询
func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	return s.repo.List(ctx, params)
}

// ListLowStock 低库存图书
func (s *service) ListLowStock(ctx context.Context) ([]*Book, error) {
	return s.repo.ListLowStock(ctx)
}

// Stats 目录统计
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// loadForUpdate 读取最新数据，并用调用方持有的版本号做乐观锁
// 调用方版本号过期时直接返回冲突，不必等到写库
func (s *service) loadForUpdate(ctx context.Context, id uint, version int) (*Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Version != version {
		return nil, ErrVersionConflict
	}
	return b, nil
}

func (s *service) save(ctx context.Context, b *Book) (*Book, error) {
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	// 缓存实现内部记录失败日志；已提交的修改不因缓存失败而回滚
	_ = s.cache.Invalidate(ctx, b.ID)
	return b, nil
}

// =========================================
// 辅助函数：业务规则校验
// =========================================

var isbnSeparator = regexp.MustCompile(`[\s-]`)

// normalizeISBN 去除分隔符(978-7-115-42802-8 → 9787115428028)
func normalizeISBN(isbn string) string {
	return strings.ToUpper(isbnSeparator.ReplaceAllString(isbn, ""))
}

// isValidISBN 校验ISBN-10/ISBN-13（含校验位）
func isValidISBN(isbn string) bool {
	switch len(isbn) {
	case 10:
		sum := 0
		for i := 0; i < 10; i++ {
			c := isbn[i]
			var d int
			switch {
			case c >= '0' && c <= '9':
				d = int(c - '0')
			case c == 'X' && i == 9:
				d = 10
			default:
				return false
			}
			sum += d * (10 - i)
		}
		return sum%11 == 0
	case 13:
		sum := 0
		for i := 0; i < 13; i++ {
			c := isbn[i]
			if c < '0' || c > '9' {
				return false
			}
			d := int(c - '0')
			if i%2 == 1 {
				d *= 3
			}
			sum += d
		}
		return sum%10 == 0
	default:
		return false
	}
}
