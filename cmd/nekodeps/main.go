package main

import "nekodeps/internal/nekodeps"

func main() {
	nekodeps.Main()
}
