package analyzer

// Chunk is the contiguous slice [Start, End) of the file list owned by one worker.
type Chunk struct {
	Worker int
	Start  int
	End    int
}

func (c Chunk) Len() int { return c.End - c.Start }

// Partition splits n files across k workers: chunkSize = n/k, worker i gets
// [i*chunkSize, (i+1)*chunkSize) and the last worker also takes the remainder.
// When n < k every worker but the last gets an empty chunk.
//
// k 는 설정 단계에서 이미 검증됨. 0 이면 프로그래밍 오류.
func Partition(n, k int) []Chunk {
	if k < 1 {
		panic("analyzer: worker count must be positive")
	}
	size := n / k
	chunks := make([]Chunk, k)
	for i := 0; i < k; i++ {
		end := (i + 1) * size
		if i == k-1 {
			end = n
		}
		chunks[i] = Chunk{Worker: i, Start: i * size, End: end}
	}
	return chunks
}
