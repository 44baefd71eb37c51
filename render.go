package novdl

import (
	"strconv"
	"strings"
)

// FailurePlaceholder is the text that stands in for a page that could not
// be loaded. It always contains a failure marker.
func FailurePlaceholder(err error) string {
	return "内容获取失败：" + ErrorMessage(err)
}

// RenderText formats the document as plain text:
//
//	{title}
//	作者：{author}
//
//	第 1 章
//	第 1 页
//	...
func RenderText(doc *SeriesDocument) string {
	var b strings.Builder
	b.WriteString(doc.Metadata.Title)
	b.WriteString("\n作者：")
	b.WriteString(doc.Metadata.Author)
	b.WriteString("\n\n")
	for _, ch := range doc.Chapters {
		b.WriteString("\n\n第 ")
		b.WriteString(strconv.Itoa(ch.Index))
		b.WriteString(" 章\n")
		b.WriteString(RenderChapterText(ch))
	}
	return b.String()
}

// RenderChapterText formats one chapter's pages as plain text.
func RenderChapterText(ch *ChapterDocument) string {
	var b strings.Builder
	for _, p := range ch.Pages {
		b.WriteString("\n第 ")
		b.WriteString(strconv.Itoa(p.Number))
		b.WriteString(" 页\n")
		b.WriteString(pageText(p))
		b.WriteString("\n\n")
	}
	return b.String()
}

// RenderMarkdown formats the document as markdown with one heading level
// each for the work, its chapters and their pages.
func RenderMarkdown(doc *SeriesDocument) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(doc.Metadata.Title)
	b.WriteString("\n\n作者：")
	b.WriteString(doc.Metadata.Author)
	b.WriteString("\n\n")
	for _, ch := range doc.Chapters {
		b.WriteString("## 第 ")
		b.WriteString(strconv.Itoa(ch.Index))
		b.WriteString(" 章\n\n")
		for _, p := range ch.Pages {
			b.WriteString("### 第 ")
			b.WriteString(strconv.Itoa(p.Number))
			b.WriteString(" 页\n\n")
			b.WriteString(pageText(p))
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func pageText(p *PageResult) string {
	if p.Failed() {
		return FailurePlaceholder(p.Err)
	}
	return p.Text
}
