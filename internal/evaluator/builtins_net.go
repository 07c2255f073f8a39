package evaluator

import (
	"fmt"
	"net"
	"net/netip"
	"sort"
)

func netModule() map[string]*Builtin {
	return map[string]*Builtin{
		"resolve_host":    {Name: "net.resolve_host", Arity: 1, Fn: netResolveHost},
		"parse_ipv4":      {Name: "net.parse_ipv4", Arity: 1, Fn: netParseIPv4},
		"subnet_mask":     {Name: "net.subnet_mask", Arity: 1, Fn: netSubnetMask},
		"is_private_ipv4": {Name: "net.is_private_ipv4", Arity: 1, Fn: netIsPrivateIPv4},
	}
}

func netResolveHost(_ *Runtime, args []Object) Object {
	host, err := argText("net.resolve_host", args, 0)
	if err != nil {
		return err
	}
	addrs, lerr := net.LookupHost(host)
	if lerr != nil {
		return newRuntimeError("failed to resolve %q: %v", host, lerr)
	}
	seen := make(map[string]struct{}, len(addrs))
	unique := addrs[:0]
	for _, addr := range addrs {
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		unique = append(unique, addr)
	}
	sort.Strings(unique)
	elems := make([]Object, len(unique))
	for i, addr := range unique {
		elems[i] = &Text{Value: addr}
	}
	return &Tuple{Elements: elems}
}

func netParseIPv4(_ *Runtime, args []Object) Object {
	addr, err := argText("net.parse_ipv4", args, 0)
	if err != nil {
		return err
	}
	parsed, perr := netip.ParseAddr(addr)
	return nativeBoolToBooleanObject(perr == nil && parsed.Is4())
}

func netSubnetMask(_ *Runtime, args []Object) Object {
	bitsWanted, err := argInt64("net.subnet_mask", args, 0)
	if err != nil {
		return err
	}
	if bitsWanted < 0 || bitsWanted > 32 {
		return newBoundsError("net.subnet_mask expects a prefix length between 0 and 32")
	}
	var mask uint32
	if bitsWanted > 0 {
		mask = ^uint32(0) << (32 - bitsWanted)
	}
	return &Text{Value: fmt.Sprintf("%d.%d.%d.%d",
		byte(mask>>24), byte(mask>>16), byte(mask>>8), byte(mask))}
}

func netIsPrivateIPv4(_ *Runtime, args []Object) Object {
	addr, err := argText("net.is_private_ipv4", args, 0)
	if err != nil {
		return err
	}
	parsed, perr := netip.ParseAddr(addr)
	if perr != nil || !parsed.Is4() {
		return newTypeError("net.is_private_ipv4 expects a valid IPv4 address")
	}
	octets := parsed.As4()
	private := octets[0] == 10 ||
		(octets[0] == 172 && octets[1] >= 16 && octets[1] <= 31) ||
		(octets[0] == 192 && octets[1] == 168) ||
		(octets[0] == 169 && octets[1] == 254)
	return nativeBoolToBooleanObject(private)
}
