package pointer

func NotNull[T any](source *T, defaultValue T) T {
	if source != nil {
		return *source
	}
	return defaultValue
}

func Create[T any](source T) *T {
	return &source
}

// FirstNotNull : 앞에서부터 처음으로 nil이 아닌 값을 반환
func FirstNotNull[T any](sources ...*T) *T {
	for _, source := range sources {
		if source != nil {
			return source
		}
	}
	return nil
}
