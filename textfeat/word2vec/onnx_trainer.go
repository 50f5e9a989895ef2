//go:build onnx
// +build onnx

package word2vec

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
	ort "github.com/yalue/onnxruntime_go"
)

const onnxBatchSize = 32

// wordSeqLen bounds per-word token sequences; single words rarely
// exceed a handful of subword pieces.
const wordSeqLen = 16

// onnxTrainer embeds each distinct corpus word with a local ONNX model
// under the onnx build tag. Initializes ORT lazily and opens a dynamic
// session; word text is subword-tokenized with sugarme WordPiece using
// the vocab.txt next to the model.
type onnxTrainer struct {
	dim       int
	modelPath string

	mu          sync.Mutex
	session     *ort.DynamicAdvancedSession
	inputNames  []string
	outputNames []string
	tok         *tk.Tokenizer
}

func newONNXTrainer(dim int, modelPath string) Trainer {
	return &onnxTrainer{dim: dim, modelPath: modelPath}
}

func (t *onnxTrainer) Dimensions() int { return t.dim }

func (t *onnxTrainer) Fit(ctx context.Context, corpus [][]string) (*Vocabulary, error) {
	if err := t.ensureSession(); err != nil {
		return nil, err
	}
	words := distinctWords(corpus)
	vectors := make(map[string][]float32, len(words)+1)
	for i := 0; i < len(words); i += onnxBatchSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		end := min(i+onnxBatchSize, len(words))
		chunk := words[i:end]
		vecs, err := t.embedChunk(chunk)
		if err != nil {
			return nil, err
		}
		for j, w := range chunk {
			vectors[w] = vecs[j]
		}
	}
	return NewVocabulary(t.dim, vectors), nil
}

func (t *onnxTrainer) ensureSession() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		return nil
	}
	if t.modelPath == "" {
		return fmt.Errorf("onnx model path is required")
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnx runtime: %w", err)
		}
	}
	ins, outs, err := ort.GetInputOutputInfo(t.modelPath)
	if err != nil {
		return fmt.Errorf("get IO info: %w", err)
	}
	var idsName, maskName, tokTypeName string
	for _, ii := range ins {
		n := strings.ToLower(ii.Name)
		if strings.Contains(n, "input_ids") || n == "ids" {
			idsName = ii.Name
		}
		if strings.Contains(n, "attention_mask") || n == "mask" {
			maskName = ii.Name
		}
		if strings.Contains(n, "token_type") {
			tokTypeName = ii.Name
		}
	}
	var inputNames []string
	for _, n := range []string{idsName, maskName, tokTypeName} {
		if n != "" {
			inputNames = append(inputNames, n)
		}
	}
	// Fallback: take the int64 tensor inputs in model order
	if len(inputNames) == 0 {
		for _, ii := range ins {
			if ii.DataType == ort.TensorElementDataTypeInt64 {
				inputNames = append(inputNames, ii.Name)
				if len(inputNames) >= 2 {
					break
				}
			}
		}
	}
	if len(inputNames) == 0 {
		return fmt.Errorf("could not determine ONNX input names")
	}
	var outputNames []string
	for _, oi := range outs {
		if oi.DataType == ort.TensorElementDataTypeFloat {
			outputNames = append(outputNames, oi.Name)
			break
		}
	}
	if len(outputNames) == 0 {
		return fmt.Errorf("could not determine ONNX output name")
	}
	s, err := ort.NewDynamicAdvancedSession(t.modelPath, inputNames, outputNames, nil)
	if err != nil {
		return fmt.Errorf("create onnx session: %w", err)
	}
	t.session = s
	t.inputNames = inputNames
	t.outputNames = outputNames

	vocabPath := filepath.Join(filepath.Dir(t.modelPath), "vocab.txt")
	wp, err := wordpiece.NewWordPieceFromFile(vocabPath, "[UNK]")
	if err != nil {
		return fmt.Errorf("failed to initialize tokenizer: %w", err)
	}
	tok := tk.NewTokenizer(wp)
	tok.WithNormalizer(normalizer.NewBertNormalizer(true, true, true, true))
	tok.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())
	tok.WithTruncation(&tk.TruncationParams{MaxLength: wordSeqLen})
	t.tok = tok
	return nil
}

func (t *onnxTrainer) embedChunk(words []string) ([][]float32, error) {
	batch := len(words)
	if batch == 0 {
		return [][]float32{}, nil
	}
	flatIDs := make([]int64, batch*wordSeqLen)
	flatMask := make([]int64, batch*wordSeqLen)
	for i, w := range words {
		enc, err := t.tok.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(w)), true)
		if err != nil {
			return nil, err
		}
		ids := enc.GetIds()
		n := min(len(ids), wordSeqLen)
		for j := 0; j < n; j++ {
			flatIDs[i*wordSeqLen+j] = int64(ids[j])
			flatMask[i*wordSeqLen+j] = 1
		}
	}
	shape := ort.NewShape(int64(batch), int64(wordSeqLen))
	idsTensor, err := ort.NewTensor(shape, flatIDs)
	if err != nil {
		return nil, fmt.Errorf("ids tensor: %w", err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor(shape, flatMask)
	if err != nil {
		return nil, fmt.Errorf("mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	inVals := make([]ort.Value, len(t.inputNames))
	for i, name := range t.inputNames {
		ln := strings.ToLower(name)
		switch {
		case strings.Contains(ln, "input_ids") || ln == "ids":
			inVals[i] = idsTensor
		case strings.Contains(ln, "attention_mask") || ln == "mask":
			inVals[i] = maskTensor
		default:
			zero := make([]int64, batch*wordSeqLen)
			zeroTensor, e := ort.NewTensor(shape, zero)
			if e != nil {
				return nil, fmt.Errorf("alloc zero tensor: %w", e)
			}
			defer zeroTensor.Destroy()
			inVals[i] = zeroTensor
		}
	}
	outVals := make([]ort.Value, len(t.outputNames))
	if err := t.session.Run(inVals, outVals); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}
	defer func() {
		for _, v := range outVals {
			if v != nil {
				v.Destroy()
			}
		}
	}()
	// Assume first output is [batch, dim] float32
	out, ok := outVals[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type")
	}
	data := out.GetData()
	oshape := out.GetShape()
	if len(oshape) != 2 {
		return nil, fmt.Errorf("unexpected output rank %d", len(oshape))
	}
	rows, cols := int(oshape[0]), int(oshape[1])
	vecs := make([][]float32, rows)
	for r := 0; r < rows; r++ {
		raw := make([]float32, cols)
		copy(raw, data[r*cols:(r+1)*cols])
		vecs[r] = AdjustToDims(raw, t.dim)
	}
	return vecs, nil
}
