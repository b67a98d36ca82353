package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"

	applibrary "github.com/xiebiao/booksdb/internal/application/library"
)

func printBooks(w io.Writer, books []applibrary.BookDTO) {
	if len(books) == 0 {
		fmt.Fprintln(w, "没有找到图书")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tISBN\t书名\t作者\t类型\t评分")
	for _, b := range books {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.1f\n",
			b.ID,
			b.ISBN,
			truncate(b.Title, 40),
			strings.Join(lo.Map(b.Authors, func(a applibrary.AuthorDTO, _ int) string { return a.Name }), ", "),
			strings.Join(lo.Map(b.Genres, func(g applibrary.GenreDTO, _ int) string { return g.Name }), ", "),
			b.Rating,
		)
	}
	_ = tw.Flush()
}

func printAuthors(w io.Writer, authors []applibrary.AuthorDTO) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t姓名\t出生日期")
	for _, a := range authors {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", a.ID, a.Name, a.Birthdate)
	}
	_ = tw.Flush()
}

func printGenres(w io.Writer, genres []applibrary.GenreDTO) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t名称")
	for _, g := range genres {
		fmt.Fprintf(tw, "%d\t%s\n", g.ID, g.Name)
	}
	_ = tw.Flush()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
