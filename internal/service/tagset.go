package service

import (
	"sort"
	"strings"
)

// ParseTagInput 把逗号分隔的自由文本解析为标签集合：
// 去首尾空白、转小写、丢弃空项、去重。返回结果按字典序排列。
func ParseTagInput(input string) []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, part := range strings.Split(input, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, name)
	}
	sort.Strings(tags)
	return tags
}

// DiffTags 计算 edited 相对 current 的集合差：toAdd = edited − current，toRemove = current − edited。
// 比较大小写不敏感，两边都先规范化。
func DiffTags(current, edited []string) (toAdd, toRemove []string) {
	cur := normalizeTagSet(current)
	next := normalizeTagSet(edited)

	for name := range next {
		if _, ok := cur[name]; !ok {
			toAdd = append(toAdd, name)
		}
	}
	for name := range cur {
		if _, ok := next[name]; !ok {
			toRemove = append(toRemove, name)
		}
	}
	sort.Strings(toAdd)
	sort.Strings(toRemove)
	return toAdd, toRemove
}

func normalizeTagSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
