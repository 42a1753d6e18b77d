package signin

// ValidationErrors 字段到错误文案；不存在 key 表示字段有效
type ValidationErrors map[Field]string

// Set 写入字段错误
func (e ValidationErrors) Set(f Field, msg string) {
	e[f] = msg
}

// Get 读取字段错误
func (e ValidationErrors) Get(f Field) string {
	return e[f]
}

// Has 字段是否有错误
func (e ValidationErrors) Has(f Field) bool {
	_, ok := e[f]
	return ok
}

// ClearMethod 删除属于某种登录方式的全部错误
func (e ValidationErrors) ClearMethod(m LoginMethod) {
	for _, f := range FieldsOf(m) {
		delete(e, f)
	}
}

// ForMethod 只保留某种登录方式的错误（返回副本）
func (e ValidationErrors) ForMethod(m LoginMethod) ValidationErrors {
	out := make(ValidationErrors)
	for _, f := range FieldsOf(m) {
		if msg, ok := e[f]; ok {
			out[f] = msg
		}
	}
	return out
}

// Clone 复制
func (e ValidationErrors) Clone() ValidationErrors {
	out := make(ValidationErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Empty 没有任何错误
func (e ValidationErrors) Empty() bool {
	return len(e) == 0
}
