// Package slug 负责把展示名称转换为 URL 安全的唯一标识。
package slug

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxAttempts 限制探测次数,防止同名请求风暴下无限循环。
const maxAttempts = 100

// ErrExhausted 表示探测达到上限仍未找到可用的 slug。
var ErrExhausted = errors.New("slug: allocation attempts exhausted")

// Lookup 查询某个候选 slug 在当前作用域内是否已被占用。
// 调用方负责把作用域(文章、分类、标签各自独立)与改名时的自身排除
// 封闭在查询实现里。
type Lookup func(candidate string) (bool, error)

// 去掉音调符号:NFD 分解后剔除非间距组合字符,再合回 NFC。
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make 将展示名称规范化为 slug 基底:小写、折叠变音符号、
// 连续的非字母数字压缩为单个连字符并裁掉首尾连字符。
func Make(name string) string {
	folded, _, err := transform.String(foldTransformer, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	lastHyphen := true // 抑制开头的连字符
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// Allocate 依次探测 base、base-1、base-2…,返回第一个未被占用的候选。
// 判定基于 taken 观察到的快照;并发创建同名条目时两次分配可能撞到同一
// 候选,最终以存储层唯一约束为准,调用方在约束冲突后需用新的快照重试。
func Allocate(name string, taken Lookup) (string, error) {
	base := Make(name)
	if base == "" {
		base = "untitled"
	}

	candidate := base
	for i := 0; i < maxAttempts; i++ {
		inUse, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !inUse {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i+1)
	}

	return "", ErrExhausted
}
