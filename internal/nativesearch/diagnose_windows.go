//go:build windows

package nativesearch

import (
	"golang.org/x/sys/windows/registry"
)

const collatorCLSID = `{9E175B8B-F52A-11D8-B9A5-505054503030}`

func platformChecks(r *diagReport) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, `SYSTEM\CurrentControlSet\Services\WSearch`, registry.QUERY_VALUE)
	if err != nil {
		r.addf("WSearch service: not installed (%v)", err)
	} else {
		start, _, err := k.GetIntegerValue("Start")
		k.Close()
		switch {
		case err != nil:
			r.addf("WSearch service: installed, start type unknown (%v)", err)
		case start == 4:
			r.addf("WSearch service: disabled")
		default:
			r.addf("WSearch service: installed, start type %d", start)
		}
	}

	for _, path := range []string{`Search.CollatorDSO.1\CLSID`, `CLSID\` + collatorCLSID + `\InprocServer32`} {
		k, err := registry.OpenKey(registry.CLASSES_ROOT, path, registry.QUERY_VALUE)
		if err != nil {
			r.addf("provider key %s: missing (%v)", path, err)
			continue
		}
		v, _, err := k.GetStringValue("")
		k.Close()
		if err != nil {
			r.addf("provider key %s: present", path)
			continue
		}
		r.addf("provider key %s: %s", path, v)
	}
}
