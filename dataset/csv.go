package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rushteam/progrec/core"
	"github.com/rushteam/progrec/pkg/log"
)

// Files 是输入文件路径。
type Files struct {
	// Ratings 评分矩阵：首行 [任意, item1, item2, ...]，其后每行 [user, r1, r2, ...]
	Ratings string

	// ItemLabels 节目标签矩阵：首行 [任意, label1, ...]，其后每行 [item, 0/1, ...]
	ItemLabels string

	// CandidateLabels 候选节目标签矩阵，格式同 ItemLabels，表头必须一致；可为空
	CandidateLabels string

	// Vocabulary 非空时，标签文件按两列标签文本 [item, "drama sci-fi"] 读取，
	// 并按此词表分词为 0/1 矩阵
	Vocabulary []string
}

// LoadFiles 读取 CSV 文件并组装 Dataset，返回前已经过 Validate。
func LoadFiles(files Files) (*Dataset, error) {
	users, items, ratings, err := readFile(files.Ratings, LoadRatings)
	if err != nil {
		return nil, err
	}
	vocab, labelItems, itemLabels, err := files.readLabels(files.ItemLabels)
	if err != nil {
		return nil, err
	}
	// 标签矩阵的行按评分矩阵的列对齐
	aligned, err := alignRows(items, labelItems, itemLabels)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Users:      users,
		Items:      items,
		Ratings:    ratings,
		Vocab:      vocab,
		ItemLabels: aligned,
	}

	if files.CandidateLabels != "" {
		candVocab, candidates, candMatrix, err := files.readLabels(files.CandidateLabels)
		if err != nil {
			return nil, err
		}
		if !candVocab.Equal(vocab) {
			return nil, core.InvalidInputf(core.ModuleDataset,
				"candidate labels %v do not match item labels %v", candVocab.Labels(), vocab.Labels())
		}
		ds.Candidates = candidates
		ds.CandidateLabels = candMatrix
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	log.Logger().Info("dataset loaded",
		zap.Int("users", len(ds.Users)),
		zap.Int("items", len(ds.Items)),
		zap.Int("labels", vocab.Len()),
		zap.Int("candidates", len(ds.Candidates)))
	return ds, nil
}

func (files Files) readLabels(path string) (*core.Vocabulary, []string, [][]float64, error) {
	if len(files.Vocabulary) == 0 {
		items, labels, matrix, err := readFile(path, LoadLabelMatrix)
		if err != nil {
			return nil, nil, nil, err
		}
		vocab, err := core.NewVocabulary(labels)
		if err != nil {
			return nil, nil, nil, err
		}
		return vocab, items, matrix, nil
	}

	vocab, err := core.NewVocabulary(files.Vocabulary)
	if err != nil {
		return nil, nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	items, labelStrings, err := LoadLabelText(f)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	items, matrix, err := LabelMatrix(items, labelStrings, vocab)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return vocab, items, matrix, nil
}

func readFile(path string, load func(io.Reader) ([]string, []string, [][]float64, error)) ([]string, []string, [][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	rows, cols, m, err := load(f)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, cols, m, nil
}

// LoadRatings 读取 用户×节目 评分矩阵，返回用户 ID、节目 ID 与矩阵。空单元格视为 0。
func LoadRatings(r io.Reader) (users, items []string, ratings [][]float64, err error) {
	return loadMatrix(r, "ratings")
}

// LoadLabelMatrix 读取 节目×标签 的 0/1 矩阵，返回节目 ID、标签与矩阵。
func LoadLabelMatrix(r io.Reader) (items, labels []string, matrix [][]float64, err error) {
	return loadMatrix(r, "labels")
}

// LoadLabelText 读取两列 [item, "label1 label2 ..."] 的标签文本，首行为表头。
func LoadLabelText(r io.Reader) (items, labelStrings []string, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true
	if _, err := reader.Read(); err != nil {
		return nil, nil, csvError("label text", err)
	}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, csvError("label text", err)
		}
		items = append(items, strings.TrimSpace(rec[0]))
		labelStrings = append(labelStrings, rec[1])
	}
	return items, labelStrings, nil
}

func loadMatrix(r io.Reader, name string) (rowIDs, colIDs []string, matrix [][]float64, err error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, nil, nil, csvError(name, err)
	}
	if len(header) < 2 {
		return nil, nil, nil, core.InvalidInputf(core.ModuleDataset, "%s header has no columns", name)
	}
	colIDs = make([]string, len(header)-1)
	for i, h := range header[1:] {
		colIDs[i] = strings.TrimSpace(h)
	}

	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, nil, csvError(name, err)
		}
		row := make([]float64, len(colIDs))
		for j, cell := range rec[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, nil, core.InvalidInputf(core.ModuleDataset,
					"%s line %d column %q: %v", name, line, colIDs[j], err)
			}
			row[j] = v
		}
		rowIDs = append(rowIDs, strings.TrimSpace(rec[0]))
		matrix = append(matrix, row)
	}
	return rowIDs, colIDs, matrix, nil
}

// csvError 把列数不一致等解析错误归为 INVALID_INPUT。
func csvError(name string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) || errors.Is(err, io.EOF) {
		return core.InvalidInputf(core.ModuleDataset, "%s: %v", name, err)
	}
	return fmt.Errorf("read %s: %w", name, err)
}

// alignRows 按 want 的顺序重排标签矩阵的行；缺行返回 NOT_FOUND。
func alignRows(want, have []string, matrix [][]float64) ([][]float64, error) {
	index := make(map[string]int, len(have))
	for i, id := range have {
		if _, ok := index[id]; !ok {
			index[id] = i
		}
	}
	out := make([][]float64, len(want))
	for i, id := range want {
		j, ok := index[id]
		if !ok {
			return nil, core.NotFoundf(core.ModuleDataset, "item %q has no label row", id)
		}
		out[i] = matrix[j]
	}
	return out, nil
}
