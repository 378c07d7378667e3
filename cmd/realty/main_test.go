package main

import (
	"testing"

	_ "github.com/realty-erp/realty-erp/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	main()
}
