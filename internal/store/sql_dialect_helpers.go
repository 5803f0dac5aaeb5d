package store

// insertIgnoreVerb 返回当前方言下“冲突即跳过”的 INSERT 动词，
// 配合 users.email 唯一索引实现无竞态的 find-or-create。
func insertIgnoreVerb(d Dialect) string {
	if d == DialectSQLite {
		return "INSERT OR IGNORE"
	}
	return "INSERT IGNORE"
}
