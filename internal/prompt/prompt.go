// Package prompt renders collected headlines into the report request sent to
// the completion service.
package prompt

import (
	"strings"
	"time"

	"github.com/Adda-Baaj/market-brief/internal/domain"
)

// DateLayout renders dates the way the report is anchored, e.g. 2025년 07월 01일.
const DateLayout = "2006년 01월 02일"

const instructions = `이 제목들을 기반으로 아래 항목을 작성해줘:

1. 시장 전반 흐름 요약 (2~3줄)
2. 📌 단기 투자 종목 (1~2일 내 수익 가능성 예상, 종목 코드 포함)
3. 📆 일주일 투자 종목 (업계 이슈 기반으로 주간 상승 기대)
4. 📅 한 달 투자 종목 (중기 상승 가능성 높은 기업)

각 추천 종목마다 이유도 간단하게 써줘. 실제 상장된 미국 종목만 추천하고, 뉴스 기반으로 종목 추천해줘.
중복되어도 괜찮고, **오늘 날짜 기준임을 명확히 해줘.**
`

// Build renders the report prompt for the given headlines and date. The
// output depends only on its inputs.
func Build(set domain.HeadlineSet, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("오늘은 ")
	sb.WriteString(now.Format(DateLayout))
	sb.WriteString("입니다.\n")
	sb.WriteString("다음은 주요 미국 증시 관련 뉴스 제목들입니다:\n\n")
	sb.WriteString(NewsSection(set))
	sb.WriteString("\n")
	sb.WriteString(instructions)

	return sb.String()
}

// NewsSection renders one block per source that has headlines, walking the
// results by position. Failed and empty sources are omitted.
func NewsSection(set domain.HeadlineSet) string {
	var sb strings.Builder
	for _, res := range set.Results() {
		if res.Failed() || len(res.Headlines) == 0 {
			continue
		}
		source, headlines := res.Source, res.Headlines

		sb.WriteString("📰 ")
		sb.WriteString(source)
		sb.WriteString(" 뉴스:\n")
		for _, h := range headlines {
			sb.WriteString("- ")
			sb.WriteString(h.Title)
			sb.WriteString("\n")
			if h.Summary != "" {
				sb.WriteString("  요약: ")
				sb.WriteString(h.Summary)
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
