package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/attorneymap/attorneymap/internal/pkg/cache"
	"github.com/attorneymap/attorneymap/internal/pkg/database"
)

const articleViewsKey = "article:counters:views"

// AddArticleView increments the pending view counter for an article in Redis
func AddArticleView(articleID uint64) error {
	client := cache.ReachableClient()
	if client == nil {
		return nil
	}
	field := strconv.FormatUint(articleID, 10)
	return client.HIncrBy(context.Background(), articleViewsKey, field, 1).Err()
}

// FlushAll applies the pending counters to the database
func FlushAll(ctx context.Context) error {
	client := cache.ReachableClient()
	if client == nil {
		return nil
	}
	return flushHashToTable(ctx, client, database.GetDB(), articleViewsKey, "articles", "view_count")
}

// flushHashToTable drains a Redis hash and applies the increments in one
// UPDATE. The hash is renamed first so increments arriving meanwhile land in
// a fresh key.
func flushHashToTable(ctx context.Context, rdb *redis.Client, db *gorm.DB, redisKey, table, column string) error {
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Rename(ctx, redisKey, tmpKey).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		return err
	}
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}

	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	// UPDATE t SET c = c + CASE id WHEN ? THEN ? ... END WHERE id IN (...)
	var builder strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	fmt.Fprintf(&builder, "UPDATE %s SET %s = %s + CASE id", table, column, column)
	for _, p := range pairs {
		builder.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	builder.WriteString(" END WHERE id IN (")
	for i, p := range pairs {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("?")
		args = append(args, p.id)
	}
	builder.WriteString(")")

	return db.WithContext(ctx).Exec(builder.String(), args...).Error
}
