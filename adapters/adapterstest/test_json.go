package adapterstest

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/brittanyzellman/prebid-tlx/adapters"
	"github.com/brittanyzellman/prebid-tlx/pbs"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// RunJSONBidderTest is a helper method intended to unit test Bidders' adapters.
// It requires that:
//
//   - Bidders communicate with external servers over HTTP.
//   - The HTTP request bodies are legal JSON, if present.
//   - Bidders' request URIs are exact and stable.
//
// Bidders who follow these rules can use the JSON files in the given directory:
//
//	{rootDir}/exemplary/*.json
//	{rootDir}/supplemental/*.json
//
// Files in "exemplary" should be cases which the bidder supports fully.
// Files in "supplemental" cover edge cases: bad responses, degraded bids, ignored input.
//
// See the triplelift adapter tests for examples of the file format.
func RunJSONBidderTest(t *testing.T, rootDir string, bidder adapters.Bidder) {
	runTests(t, filepath.Join(rootDir, "exemplary"), bidder, false)
	runTests(t, filepath.Join(rootDir, "supplemental"), bidder, true)
}

// runTests runs all the *.json files in a directory. If allowErrors is false, and one of the test files
// expects errors from the bidder, then the test will fail.
func runTests(t *testing.T, directory string, bidder adapters.Bidder, allowErrors bool) {
	t.Helper()
	if specFiles, err := ioutil.ReadDir(directory); err == nil {
		for _, specFile := range specFiles {
			if specFile.IsDir() || !strings.HasSuffix(specFile.Name(), ".json") {
				continue
			}
			fileName := filepath.Join(directory, specFile.Name())
			specData, err := loadFile(fileName)
			if err != nil {
				t.Fatalf("Failed to load contents of file %s: %v", fileName, err)
			}

			if !allowErrors && specData.expectsErrors() {
				t.Fatalf("Exemplary spec %s must not expect errors.", fileName)
			}
			runSpec(t, fileName, specData, bidder)
		}
	}
}

// loadFile reads and parses a file as a test case. If something goes wrong, it returns an error.
func loadFile(filename string) (*testSpec, error) {
	specData, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Failed to read file %s: %v", filename, err)
	}

	var spec testSpec
	if err := json.Unmarshal(specData, &spec); err != nil {
		return nil, fmt.Errorf("Failed to unmarshal JSON from file: %v", err)
	}

	return &spec, nil
}

// runSpec runs a single test case. It will make sure:
//
//   - That the Bidder does not return nil HTTP requests, bids, or errors inside their lists
//   - That the Bidder's HTTP calls match the spec's expectations.
//   - That the Bidder's Bids match the spec's expectations
//   - That the Bidder's errors match the spec's expectations
func runSpec(t *testing.T, filename string, spec *testSpec, bidder adapters.Bidder) {
	t.Helper()
	request := spec.BidderRequest
	actualReqs, errs := bidder.BuildRequests(request.Bids, &request)
	diffErrorLists(t, fmt.Sprintf("%s: BuildRequests", filename), errs, spec.BuildRequestsErrors)
	diffHttpRequestLists(t, filename, actualReqs, spec.HttpCalls)

	var bids []*pbs.Bid
	var interpretErrs []error
	for i := 0; i < len(actualReqs) && i < len(spec.HttpCalls); i++ {
		thisBids, theseErrs := bidder.InterpretResponse(&request, spec.HttpCalls[i].Response.ToResponseData())
		interpretErrs = append(interpretErrs, theseErrs...)
		for _, bid := range thisBids {
			if bid == nil {
				t.Errorf("%s: InterpretResponse returned a nil bid", filename)
				continue
			}
			bids = append(bids, bid)
		}
	}
	diffErrorLists(t, fmt.Sprintf("%s: InterpretResponse", filename), interpretErrs, spec.InterpretResponseErrors)
	diffBidLists(t, filename, bids, spec.Bids)
}

type testSpec struct {
	BidderRequest           pbs.BidderRequest       `json:"mockBidderRequest"`
	HttpCalls               []httpCall              `json:"httpCalls"`
	Bids                    []json.RawMessage       `json:"expectedBids"`
	BuildRequestsErrors     []testSpecExpectedError `json:"expectedBuildRequestsErrors"`
	InterpretResponseErrors []testSpecExpectedError `json:"expectedInterpretResponseErrors"`
}

type testSpecExpectedError struct {
	Value      string `json:"value"`
	Comparison string `json:"comparison"`
}

func (spec *testSpec) expectsErrors() bool {
	return len(spec.BuildRequestsErrors) > 0 || len(spec.InterpretResponseErrors) > 0
}

type httpCall struct {
	Request  httpRequest  `json:"expectedRequest"`
	Response httpResponse `json:"mockResponse"`
}

type httpRequest struct {
	Method string          `json:"method"`
	Uri    string          `json:"uri"`
	Body   json.RawMessage `json:"body"`
}

type httpResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

func (resp *httpResponse) ToResponseData() *adapters.ResponseData {
	return &adapters.ResponseData{
		StatusCode: resp.Status,
		Body:       resp.Body,
	}
}

// diffErrorLists fails the test if the actual errors don't match the expected ones.
func diffErrorLists(t *testing.T, description string, actual []error, expected []testSpecExpectedError) {
	t.Helper()

	if len(expected) != len(actual) {
		t.Fatalf("%s had wrong error count. Expected %d, got %d (%v)", description, len(expected), len(actual), actual)
	}
	for i := 0; i < len(actual); i++ {
		if actual[i] == nil {
			t.Fatalf("%s returned a nil error at index %d", description, i)
		}
		switch expected[i].Comparison {
		case "regex":
			matched, err := regexp.MatchString(expected[i].Value, actual[i].Error())
			if err != nil {
				t.Fatalf("%s had bad regex in expected error %d: %v", description, i, err)
			}
			if !matched {
				t.Errorf(`%s error[%d] had wrong message. Expected match with regex "%s", got "%s"`, description, i, expected[i].Value, actual[i].Error())
			}
		default:
			if expected[i].Value != actual[i].Error() {
				t.Errorf(`%s error[%d] had wrong message. Expected "%s", got "%s"`, description, i, expected[i].Value, actual[i].Error())
			}
		}
	}
}

// diffHttpRequestLists compares the actual HTTP requests to the expected ones.
func diffHttpRequestLists(t *testing.T, filename string, actual []*adapters.RequestData, expected []httpCall) {
	t.Helper()

	if len(expected) != len(actual) {
		t.Fatalf("%s: BuildRequests had wrong request count. Expected %d, got %d", filename, len(expected), len(actual))
	}
	for i := 0; i < len(actual); i++ {
		diffHttpRequests(t, fmt.Sprintf("%s: httpRequest[%d]", filename, i), actual[i], &(expected[i].Request))
	}
}

func diffHttpRequests(t *testing.T, description string, actual *adapters.RequestData, expected *httpRequest) {
	t.Helper()
	if actual == nil {
		t.Fatalf("Bidders cannot return nil HTTP calls. %s was nil.", description)
	}

	if expected.Method != "" && expected.Method != actual.Method {
		t.Errorf(`%s.method "%s" does not match expected "%s."`, description, actual.Method, expected.Method)
	}
	if expected.Uri != actual.Uri {
		t.Errorf(`%s.uri "%s" does not match expected "%s."`, description, actual.Uri, expected.Uri)
	}
	if len(expected.Body) > 0 || len(actual.Body) > 0 {
		diffJson(t, description+".body", actual.Body, expected.Body)
	}
}

func diffBidLists(t *testing.T, filename string, actual []*pbs.Bid, expected []json.RawMessage) {
	t.Helper()

	if len(actual) != len(expected) {
		t.Fatalf("%s: InterpretResponse returned wrong bid count. Expected %d, got %d", filename, len(expected), len(actual))
	}
	for i := 0; i < len(actual); i++ {
		actualJSON, err := json.Marshal(actual[i])
		if err != nil {
			t.Fatalf("%s: failed to marshal bid[%d]: %v", filename, i, err)
		}
		diffJson(t, fmt.Sprintf("%s: bid[%d]", filename, i), actualJSON, expected[i])
	}
}

// diffJson compares two JSON byte arrays for structural equality. It will produce an error if either
// byte array is not actually JSON.
func diffJson(t *testing.T, description string, actual []byte, expected []byte) {
	t.Helper()
	if len(actual) == 0 {
		actual = []byte("null")
	}
	if len(expected) == 0 {
		expected = []byte("null")
	}

	diff, err := gojsondiff.New().Compare(actual, expected)
	if err != nil {
		t.Fatalf("%s json diff failed. %v", description, err)
	}

	if diff.Modified() {
		var left interface{}
		if err := json.Unmarshal(actual, &left); err != nil {
			t.Fatalf("%s json did not match, but unmarshalling failed. %v", description, err)
		}
		printer := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
			ShowArrayIndex: true,
		})
		output, err := printer.Format(diff)
		if err != nil {
			t.Errorf("%s did not match, but diff formatting failed. %v", description, err)
		} else {
			t.Errorf("%s json did not match expected.\n\n%s", description, output)
		}
	}
}
