//go:build !linux && !tinygo

package platform

type threadBoost struct{}

func (*threadBoost) raise(int) {}
func (*threadBoost) restore()  {}
