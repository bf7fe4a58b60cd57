package gormpersistence

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// isDuplicateEntryError 判断错误是否是 MySQL 唯一约束冲突 (错误码 1062)。
func isDuplicateEntryError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
