package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// GenerationConfigKey returns the cache key for an exam's generation config
// payload (subjects, chapters grouped by subject, papers).
func (r *CacheKeyStruct) GenerationConfigKey(examID string) string {
	return fmt.Sprintf("exam:%s:generation_config", examID)
}

// ExamListKey returns the cache key for the full exam list.
func (r *CacheKeyStruct) ExamListKey() string {
	return "catalog:exams"
}

var CacheKey = NewCacheKeyStruct()
