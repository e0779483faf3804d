package analyzer

// Event는 analyzer -> 관찰자(tui 등) 로 전달되는 이벤트의 공통 타입입니다.
type Event interface {
	isEvent()
}

type Totals struct {
	FilesTotal   int
	FilesDone    int
	LinesTotal   int64
	MatchesTotal int64
	Done         bool
	Err          error
}

func (Totals) isEvent() {}

const (
	StatusWait = "WAIT"
	StatusDone = "DONE"
	StatusSkip = "SKIP" // 열 수 없거나 일반 파일이 아님
	StatusFail = "FAIL" // 디코딩 실패
)

type FileUpdate struct {
	File    string
	Worker  int
	Lines   int64
	Matches int64
	Status  string
	Err     error
}

func (FileUpdate) isEvent() {}

// MatchLine.Seq 는 실행 전체에서 1부터 단조 증가합니다.
type MatchLine struct {
	Seq        uint64
	File       string
	LineNumber int
	Line       string
}

func (MatchLine) isEvent() {}
